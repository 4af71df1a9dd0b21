package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSettingsPath 返回默认的配置文件路径 ~/.finchat/settings.json。
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".finchat", "settings.json"), nil
}

// settingsFile 是 settings.json 的结构，字段名与前端导出的设置保持一致。
type settingsFile struct {
	BaseURL  string `json:"baseUrl"`
	APIKey   string `json:"apiKey"`
	Model    string `json:"model"`
	Supabase struct {
		URL     string `json:"url"`
		AnonKey string `json:"anonKey"`
	} `json:"supabase"`
}

// FileProvider 从 JSON 文件读取配置。
type FileProvider struct {
	path string
}

// NewFileProvider 创建文件来源，path 为空时使用默认路径。
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Load(_ context.Context) (Settings, error) {
	path := p.path
	if path == "" {
		var err error
		path, err = DefaultSettingsPath()
		if err != nil {
			return Settings{}, err
		}
	}
	return ReadSettingsFromPath(path)
}

// ReadSettingsFromPath 读取并解析指定路径的 settings.json。
// 文件不存在时返回 ErrNotConfigured，方便 auto 链路跳过该来源。
func ReadSettingsFromPath(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, ErrNotConfigured
		}
		return Settings{}, fmt.Errorf("read settings file %s: %w", path, err)
	}
	var f settingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Settings{}, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	if strings.TrimSpace(f.APIKey) == "" {
		return Settings{}, fmt.Errorf("settings file %s: missing apiKey", path)
	}
	s := Settings{
		BaseURL:     f.BaseURL,
		APIKey:      f.APIKey,
		Model:       f.Model,
		SupabaseURL: f.Supabase.URL,
		SupabaseKey: f.Supabase.AnonKey,
	}
	return s.ApplyDefaults(), nil
}
