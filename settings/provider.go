package settings

import (
	"context"
	"errors"
	"fmt"
)

// NewProvider 按来源名创建 Provider。source 为空等同于 auto。
func NewProvider(source Source, filePath string) (Provider, error) {
	switch source {
	case SourceEnv:
		return NewEnvProvider(), nil
	case SourceFile:
		return NewFileProvider(filePath), nil
	case SourceAuto, "":
		return NewAutoProvider(filePath), nil
	default:
		return nil, fmt.Errorf("unknown settings source %q", source)
	}
}

// AutoProvider 依次尝试环境变量与配置文件，返回第一个可用的结果。
type AutoProvider struct {
	chain []Provider
}

func NewAutoProvider(filePath string) *AutoProvider {
	return &AutoProvider{chain: []Provider{
		NewEnvProvider(),
		NewFileProvider(filePath),
	}}
}

func (p *AutoProvider) Load(ctx context.Context) (Settings, error) {
	for _, prov := range p.chain {
		s, err := prov.Load(ctx)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotConfigured) {
			return Settings{}, err
		}
	}
	return Settings{}, ErrNotConfigured
}
