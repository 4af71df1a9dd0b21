package settings

import (
	"context"
	"errors"
	"os"
	"strings"
)

// 环境变量名，与 .env 文件共用（见 cmd 里的 godotenv）。
const (
	EnvAPIKey      = "FINCHAT_API_KEY"
	EnvBaseURL     = "FINCHAT_BASE_URL"
	EnvModel       = "FINCHAT_MODEL"
	EnvSupabaseURL = "FINCHAT_SUPABASE_URL"
	EnvSupabaseKey = "FINCHAT_SUPABASE_KEY"
)

// ErrNotConfigured 表示该来源没有可用的配置。
var ErrNotConfigured = errors.New("settings: not configured")

// EnvProvider 从环境变量读取配置。
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider { return &EnvProvider{} }

func (p *EnvProvider) Load(_ context.Context) (Settings, error) {
	apiKey := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if apiKey == "" {
		return Settings{}, ErrNotConfigured
	}
	s := Settings{
		BaseURL:     os.Getenv(EnvBaseURL),
		APIKey:      apiKey,
		Model:       os.Getenv(EnvModel),
		SupabaseURL: os.Getenv(EnvSupabaseURL),
		SupabaseKey: os.Getenv(EnvSupabaseKey),
	}
	return s.ApplyDefaults(), nil
}
