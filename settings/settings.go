// Package settings 从不同来源读取助手运行所需的配置
// （chat-completions 端点、API key、模型、Supabase 项目信息）。
// 前端应用里这些值存在浏览器本地设置中，这里对应 env 与本地 JSON 文件两种来源。
package settings

import (
	"context"
	"strings"

	"github.com/fincat-app/finchat"
)

// Settings 是助手的运行配置。
type Settings struct {
	BaseURL     string
	APIKey      string
	Model       string
	SupabaseURL string
	SupabaseKey string
}

// ApplyDefaults 填充缺省的 BaseURL 与 Model，并规范化 BaseURL。
func (s Settings) ApplyDefaults() Settings {
	s.BaseURL = finchat.NormalizeBaseURL(s.BaseURL)
	if strings.TrimSpace(s.Model) == "" {
		s.Model = finchat.DefaultModelID
	}
	return s
}

// HasSupabase 判断是否配置了远程检索所需的 Supabase 信息。
func (s Settings) HasSupabase() bool {
	return strings.TrimSpace(s.SupabaseURL) != "" && strings.TrimSpace(s.SupabaseKey) != ""
}

// Provider 从某个来源读取配置。
type Provider interface {
	Load(ctx context.Context) (Settings, error)
}

type Source string

const (
	SourceFile Source = "file"
	SourceEnv  Source = "env"
	SourceAuto Source = "auto"
)
