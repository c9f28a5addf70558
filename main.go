/*
Copyright © 2025 tieubaoca
*/
package main

import (
	"github.com/joho/godotenv"
	"github.com/tieubaoca/compliance-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// a missing .env is fine, configuration can come from real env vars
	_ = godotenv.Load()
}
