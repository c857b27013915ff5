package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	LLM         LLMConfig         `yaml:"llm"`
	ImageSearch ImageSearchConfig `yaml:"image_search"`
	Render      RenderConfig      `yaml:"render"`
	Data        DataConfig        `yaml:"data"`
	Generation  GenerationConfig  `yaml:"generation"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type LLMConfig struct {
	APIURL    string        `yaml:"api_url"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ImageSearchConfig Unsplash 兼容的图片搜索服务
type ImageSearchConfig struct {
	BaseURL   string        `yaml:"base_url"`
	AccessKey string        `yaml:"access_key"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RenderConfig struct {
	OutputDir        string        `yaml:"output_dir"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	MaxImageBytes    int64         `yaml:"max_image_bytes"`
	FetchConcurrency int           `yaml:"fetch_concurrency"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

// GenerationConfig 异步生成任务的工作池
type GenerationConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		LLM: LLMConfig{
			APIURL:    "https://api.openai.com/v1",
			Model:     "gpt-4o",
			MaxTokens: 4096,
			Timeout:   60 * time.Second,
		},
		ImageSearch: ImageSearchConfig{
			BaseURL: "https://api.unsplash.com",
			Timeout: 10 * time.Second,
		},
		Render: RenderConfig{
			FetchTimeout:     10 * time.Second,
			MaxImageBytes:    10 << 20,
			FetchConcurrency: 4,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Generation: GenerationConfig{
			Workers:   2,
			QueueSize: 16,
		},
	}
}

func loadConfig() *Config {
	config := defaults()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	// 图片搜索
	if key := os.Getenv("UNSPLASH_ACCESS_KEY"); key != "" {
		config.ImageSearch.AccessKey = key
	}
	if baseURL := os.Getenv("UNSPLASH_BASE_URL"); baseURL != "" {
		config.ImageSearch.BaseURL = baseURL
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}
	if outDir := os.Getenv("OUTPUT_DIR"); outDir != "" {
		config.Render.OutputDir = outDir
	}
	if config.Render.OutputDir == "" {
		config.Render.OutputDir = filepath.Join(config.Data.Dir, "exports")
	}

	if workers, err := strconv.Atoi(os.Getenv("GENERATION_WORKERS")); err == nil && workers > 0 {
		config.Generation.Workers = workers
	}
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func UpdateConfig(newCfg *Config) {
	cfg = newCfg
}
