package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string `mapstructure:"port"`
	UploadDir string `mapstructure:"upload_dir"`

	AIBackend     string   `mapstructure:"ai_backend"` // "openai" or "gemini"
	AIEndpoint    string   `mapstructure:"ai_endpoint"`
	Model         string   `mapstructure:"model"`
	OpenAIAPIKey  string   `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys []string `mapstructure:"gemini_api_keys"`

	EmbeddingModel     string `mapstructure:"embedding_model"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension"`

	ExtractionURL    string `mapstructure:"extraction_url"`
	ExtractionAPIKey string `mapstructure:"UNSTRUCTURED_API_KEY"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	MongoConfig         MongoConfig         `mapstructure:"mongo_config"`
	Engine              EngineConfig        `mapstructure:"engine"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

type MongoConfig struct {
	URI      string `mapstructure:"MONGODB_URI"`
	Database string `mapstructure:"database"`
}

// EngineConfig exposes the compliance pipeline tunables as named values.
// Defaults mirror the rate limits of the reference deployment.
type EngineConfig struct {
	MaxConcurrentAssessments int     `mapstructure:"max_concurrent_assessments"`
	TopKPerQuery             int     `mapstructure:"top_k_per_query"`
	MaxRulesPerFramework     int     `mapstructure:"max_rules_per_framework"`
	MaxQueriesPerFramework   int     `mapstructure:"max_queries_per_framework"`
	PartialComplianceWeight  float64 `mapstructure:"partial_compliance_weight"`
	MaxSectionText           int     `mapstructure:"max_section_text"`
	ChunkSize                int     `mapstructure:"chunk_size"`
	ChunkOverlap             int     `mapstructure:"chunk_overlap"`
	MaxAssessAttempts        int     `mapstructure:"max_assess_attempts"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxConcurrentAssessments: 2,
		TopKPerQuery:             8,
		MaxRulesPerFramework:     15,
		MaxQueriesPerFramework:   8,
		PartialComplianceWeight:  0.5,
		MaxSectionText:           6000,
		ChunkSize:                1000,
		ChunkOverlap:             200,
		MaxAssessAttempts:        3,
	}
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("MONGODB_URI")
	v.BindEnv("UNSTRUCTURED_API_KEY")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("ADMIN_PASSWORD")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(c *Config) {
	if c.Port == "" {
		c.Port = "8888"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.AIBackend == "" {
		c.AIBackend = "openai"
	}
	if c.Model == "" {
		c.Model = "gpt-4.1"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-large"
	}
	if c.EmbeddingDimension == 0 {
		c.EmbeddingDimension = 3072
	}
	if c.MongoConfig.Database == "" {
		c.MongoConfig.Database = "nfra_compliance"
	}

	def := DefaultEngineConfig()
	e := &c.Engine
	if e.MaxConcurrentAssessments == 0 {
		e.MaxConcurrentAssessments = def.MaxConcurrentAssessments
	}
	if e.TopKPerQuery == 0 {
		e.TopKPerQuery = def.TopKPerQuery
	}
	if e.MaxRulesPerFramework == 0 {
		e.MaxRulesPerFramework = def.MaxRulesPerFramework
	}
	if e.MaxQueriesPerFramework == 0 {
		e.MaxQueriesPerFramework = def.MaxQueriesPerFramework
	}
	if e.PartialComplianceWeight == 0 {
		e.PartialComplianceWeight = def.PartialComplianceWeight
	}
	if e.MaxSectionText == 0 {
		e.MaxSectionText = def.MaxSectionText
	}
	if e.ChunkSize == 0 {
		e.ChunkSize = def.ChunkSize
	}
	if e.ChunkOverlap == 0 {
		e.ChunkOverlap = def.ChunkOverlap
	}
	if e.MaxAssessAttempts == 0 {
		e.MaxAssessAttempts = def.MaxAssessAttempts
	}
}
