package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// EmbeddingConfig configures the embedding provider. Dimensions must match
// the vector index dimension exactly; a provider returning anything else is
// a fatal configuration error.
type EmbeddingConfig struct {
	BaseURL       string `yaml:"base_url"`
	Key           string `yaml:"key"`
	Model         string `yaml:"model"`
	Task          string `yaml:"task"`
	Dimensions    int    `yaml:"dimensions"`
	BatchSize     int    `yaml:"batch_size"`
	MaxInputChars int    `yaml:"max_input_chars"`
	MaxAttempts   int    `yaml:"max_attempts"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
}

// InferenceConfig configures the OpenAI-chat-style generative provider.
type InferenceConfig struct {
	BaseURL      string `yaml:"base_url"`
	Key          string `yaml:"key"`
	ChatModel    string `yaml:"chat_model"`
	SummaryModel string `yaml:"summary_model"`
	QuizModel    string `yaml:"quiz_model"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Type     string `yaml:"type"` // chromem | postgres
	Path     string `yaml:"path"` // chromem persistence dir; empty = in-memory
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Inference InferenceConfig `yaml:"inference"`
	Store     StoreConfig     `yaml:"store"`
	RAG       RAGConfig       `yaml:"rag"`
}

// LoadConfig reads a yaml config from path. A missing file yields defaults;
// credentials and the port may be overridden from the environment.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.jina.ai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "jina-embeddings-v3"
	}
	if cfg.Embedding.Task == "" {
		cfg.Embedding.Task = "retrieval.passage"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1024
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 20
	}
	if cfg.Embedding.MaxInputChars == 0 {
		cfg.Embedding.MaxInputChars = 2000
	}
	if cfg.Embedding.MaxAttempts == 0 {
		cfg.Embedding.MaxAttempts = 3
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 60
	}
	if cfg.Inference.BaseURL == "" {
		cfg.Inference.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Inference.ChatModel == "" {
		cfg.Inference.ChatModel = "gpt-4o-mini"
	}
	if cfg.Inference.SummaryModel == "" {
		cfg.Inference.SummaryModel = "openai/gpt-3.5-turbo"
	}
	if cfg.Inference.QuizModel == "" {
		cfg.Inference.QuizModel = "openai/gpt-3.5-turbo"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "chromem"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 500
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 50
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JINA_API_KEY"); v != "" {
		cfg.Embedding.Key = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Inference.Key = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}
