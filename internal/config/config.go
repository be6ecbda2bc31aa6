package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const defaultAnimationSystemPrompt = "You are an expert Manim animator. Given a topic, respond with a complete, runnable Manim script that defines a single Scene subclass named MainScene. Wrap the script in a single ```python code block and output nothing else."

type Config struct {
	Port            string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMModel        string
	AnimationPrompt string
	BaseURL         string
	ShareSecret     string
	ShareTTL        time.Duration
	MaxBodyBytes    int64
	DataDir         string
	MediaDir        string
	ManimBinary     string
	RenderTimeout   time.Duration
}

func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8080")
	cfg.LLMAPIKey = os.Getenv("API_KEY")
	cfg.LLMBaseURL = envOrDefault("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	cfg.LLMModel = envOrDefault("LLM_MODEL", "gemini-2.0-flash")

	cfg.BaseURL = envOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%s", cfg.Port))
	cfg.ShareSecret = envOrDefault("SHARE_SECRET", "change-me")
	cfg.DataDir = envOrDefault("DATA_DIR", "data")
	cfg.MediaDir = envOrDefault("MEDIA_DIR", filepath.Join("media", "videos"))
	cfg.ManimBinary = envOrDefault("MANIM_BIN", "manim")

	shareTTLSeconds, err := parseIntEnv("SHARE_TTL_SECONDS", 86400)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHARE_TTL_SECONDS: %w", err)
	}
	cfg.ShareTTL = time.Duration(shareTTLSeconds) * time.Second

	renderTimeoutSeconds, err := parseIntEnv("RENDER_TIMEOUT_SECONDS", 120)
	if err != nil {
		return Config{}, fmt.Errorf("parse RENDER_TIMEOUT_SECONDS: %w", err)
	}
	cfg.RenderTimeout = time.Duration(renderTimeoutSeconds) * time.Second

	maxBodyMB, err := parseIntEnv("MAX_BODY_MB", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_BODY_MB: %w", err)
	}
	cfg.MaxBodyBytes = maxBodyMB * 1024 * 1024

	cfg.AnimationPrompt = defaultAnimationSystemPrompt
	promptPath := envOrDefault("SYSTEM_PROMPT_PATH", "fine_tuned_system_prompt.txt")
	if data, err := os.ReadFile(promptPath); err == nil && len(data) > 0 {
		cfg.AnimationPrompt = string(data)
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	absMediaDir, err := filepath.Abs(cfg.MediaDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve media dir: %w", err)
	}
	cfg.MediaDir = absMediaDir

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}
