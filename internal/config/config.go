package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig configures how transcripts are split into chunks.
// Sizes are in whitespace tokens.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant index backend.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Type   string        `yaml:"type"`
	Dir    string        `yaml:"dir"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// GeneratorConfig configures the language model used for note
// generation and chat.
type GeneratorConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	// Pointers so an explicit 0 survives the defaulting pass.
	NotesTemperature *float64 `yaml:"notes_temperature"`
	ChatTemperature  *float64 `yaml:"chat_temperature"`
}

// RetrievalConfig tunes how many chunks are retrieved and where the
// out-of-context boundary lies.
type RetrievalConfig struct {
	NotesTopK           int      `yaml:"notes_top_k"`
	ChatTopK            int      `yaml:"chat_top_k"`
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`
}

// StoreConfig locates the metadata database and the notes export
// directory.
type StoreConfig struct {
	Path      string `yaml:"path"`
	ExportDir string `yaml:"export_dir"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Index     IndexConfig     `yaml:"index"`
	Generator GeneratorConfig `yaml:"generator"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Store     StoreConfig     `yaml:"store"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/studyrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/studyrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "studyrag", "config.yaml"), nil
}

func floatPtr(v float64) *float64 { return &v }

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studyrag"
	}
	return filepath.Join(home, ".local", "share", "studyrag")
}

func defaultConfig() *AppConfig {
	dataDir := defaultDataDir()
	cfg := &AppConfig{
		Chunker:  ChunkerConfig{Size: 1000, Overlap: 200},
		Embedder: EmbedderConfig{Type: "hashing", Dimension: 384},
		Index:    IndexConfig{Type: "flat", Dir: filepath.Join(dataDir, "indexes")},
		Generator: GeneratorConfig{
			BaseURL:          "https://api.groq.com/openai/v1",
			APIKeyEnv:        "GROQ_API_KEY",
			Model:            "llama-3.3-70b-versatile",
			TimeoutSecs:      60,
			NotesTemperature: floatPtr(0.7),
			ChatTemperature:  floatPtr(0.7),
		},
		Retrieval: RetrievalConfig{NotesTopK: 5, ChatTopK: 3, SimilarityThreshold: floatPtr(1.0)},
		Store:     StoreConfig{Path: filepath.Join(dataDir, "studyrag.db"), ExportDir: "."},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Chunker.Size == 0 {
		cfg.Chunker = def.Chunker
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = def.Index.Type
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = def.Index.Dir
	}
	if cfg.Index.Type == "qdrant" && cfg.Index.Qdrant != nil && cfg.Index.Qdrant.TimeoutSecs == 0 {
		cfg.Index.Qdrant.TimeoutSecs = 30
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = def.Generator.BaseURL
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = def.Generator.APIKeyEnv
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = def.Generator.Model
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = def.Generator.TimeoutSecs
	}
	if cfg.Generator.NotesTemperature == nil {
		cfg.Generator.NotesTemperature = def.Generator.NotesTemperature
	}
	if cfg.Generator.ChatTemperature == nil {
		cfg.Generator.ChatTemperature = def.Generator.ChatTemperature
	}
	if cfg.Retrieval.NotesTopK == 0 {
		cfg.Retrieval.NotesTopK = def.Retrieval.NotesTopK
	}
	if cfg.Retrieval.ChatTopK == 0 {
		cfg.Retrieval.ChatTopK = def.Retrieval.ChatTopK
	}
	if cfg.Retrieval.SimilarityThreshold == nil {
		cfg.Retrieval.SimilarityThreshold = def.Retrieval.SimilarityThreshold
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.Store.ExportDir == "" {
		cfg.Store.ExportDir = def.Store.ExportDir
	}
}
