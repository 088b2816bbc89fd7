package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration, loaded from a YAML file with
// optional environment overrides for deployment-sensitive values.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	API struct {
		BaseURL        string `yaml:"base_url"`
		Round          string `yaml:"round"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`

	Interview struct {
		CountdownSeconds int `yaml:"countdown_seconds"`
		AnswerSeconds    int `yaml:"answer_seconds"`
	} `yaml:"interview"`

	Capture struct {
		ChunkIntervalMs    int    `yaml:"chunk_interval_ms"`
		VideoBitsPerSecond int    `yaml:"video_bits_per_second"`
		MimeType           string `yaml:"mime_type"`
	} `yaml:"capture"`

	Recognition struct {
		Provider   string `yaml:"provider"` // "stream" or "unsupported"
		ServerURL  string `yaml:"server_url"`
		SampleRate int    `yaml:"sample_rate"`
	} `yaml:"recognition"`

	SessionLog struct {
		OutputDir  string `yaml:"output_dir"`
		SaveEvents bool   `yaml:"save_events"`
	} `yaml:"session_log"`

	Redis struct {
		Addr   string `yaml:"addr"` // empty disables the Redis parameter cache
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Load reads configuration from a YAML file, fills in defaults and applies
// environment overrides.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.API.Round == "" {
		c.API.Round = "pre-screening"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 10
	}
	if c.Interview.CountdownSeconds == 0 {
		c.Interview.CountdownSeconds = 3
	}
	if c.Interview.AnswerSeconds == 0 {
		c.Interview.AnswerSeconds = 5
	}
	if c.Capture.ChunkIntervalMs == 0 {
		c.Capture.ChunkIntervalMs = 1000
	}
	if c.Capture.VideoBitsPerSecond == 0 {
		c.Capture.VideoBitsPerSecond = 2500000
	}
	if c.Capture.MimeType == "" {
		c.Capture.MimeType = "video/webm;codecs=vp8,opus"
	}
	if c.Recognition.Provider == "" {
		c.Recognition.Provider = "stream"
	}
	if c.Recognition.SampleRate == 0 {
		c.Recognition.SampleRate = 16000
	}
	if c.SessionLog.OutputDir == "" {
		c.SessionLog.OutputDir = "./sessions"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "recorder:session:"
	}
}

// applyEnvOverrides lets deployments override values that should not live in
// a checked-in config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RECORDER_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("RECORDER_STT_SERVER_URL"); v != "" {
		c.Recognition.ServerURL = v
	}
	if v := os.Getenv("RECORDER_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Interview.CountdownSeconds < 1 {
		return fmt.Errorf("interview.countdown_seconds must be at least 1, got %d", c.Interview.CountdownSeconds)
	}
	if c.Interview.AnswerSeconds < 1 {
		return fmt.Errorf("interview.answer_seconds must be at least 1, got %d", c.Interview.AnswerSeconds)
	}
	switch c.Recognition.Provider {
	case "stream":
		if c.Recognition.ServerURL == "" {
			return fmt.Errorf("recognition.server_url is required for the stream provider")
		}
	case "unsupported":
	default:
		return fmt.Errorf("unknown recognition provider: %s", c.Recognition.Provider)
	}
	return nil
}
