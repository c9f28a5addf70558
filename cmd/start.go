/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/handler"
	"github.com/tieubaoca/compliance-be/middleware"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the compliance validation server",
	Long:  `Starts the HTTP server that serves document uploads, compliance checks and reports`,
	Run: func(cmd *cobra.Command, args []string) {

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		app, err := buildApp(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize services: %v", err)
		}

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		loginHandler := handler.NewLoginHandler(cfg)
		uploadHandler := handler.NewUploadHandler(app.ingest, cfg.UploadDir)
		documentHandler := handler.NewDocumentHandler(app.docRepo)
		complianceHandler := handler.NewComplianceHandler(app.engine, app.stream)
		reportHandler := handler.NewReportHandler(app.reportRepo)
		searchHandler := handler.NewSearchHandler(app.search)
		adminHandler := handler.NewAdminHandler(app.ingest, cfg.UploadDir)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		apiV1.POST("/login", loginHandler.HandleLogin)
		{
			apiV1.POST("/documents/upload", uploadHandler.HandleUpload)
			apiV1.GET("/documents", documentHandler.HandleListDocuments)
			apiV1.GET("/documents/:documentId", documentHandler.HandleGetDocument)
			apiV1.DELETE("/documents/:documentId", documentHandler.HandleDeleteDocument)

			apiV1.POST("/compliance/check", complianceHandler.HandleCheck)
			apiV1.POST("/compliance/check/async", complianceHandler.HandleCheckAsync)
			apiV1.POST("/compliance/check/batch", complianceHandler.HandleBatchCheck)
			apiV1.GET("/compliance/progress/:runId", complianceHandler.HandleProgress)
			apiV1.POST("/compliance/runs/:runId/cancel", complianceHandler.HandleCancel)

			apiV1.GET("/reports/:reportId", reportHandler.HandleGetReport)
			apiV1.GET("/reports", reportHandler.HandleListReports)

			apiV1.POST("/rules/search", searchHandler.HandleSearchRules)
			apiV1.GET("/frameworks", searchHandler.HandleListFrameworks)
		}

		// progress stream stays outside the api group, websocket clients
		// cannot set headers
		router.GET("/ws/compliance/progress/:runId", complianceHandler.HandleProgressStream)

		// Admin routes - require admin authentication
		adminRoutes := router.Group("/admin/api/v1")
		adminRoutes.Use(middleware.AdminAuth(cfg.JWTSecret))
		{
			adminRoutes.POST("/rules/index", adminHandler.HandleIndexRules)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
