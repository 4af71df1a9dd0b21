// Package supabase 是 Supabase PostgREST 接口的最小客户端，
// 只覆盖 finchat 用到的 RPC（存储过程）调用。
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Config struct {
	// URL 项目地址，形如 https://xxxx.supabase.co
	URL string
	// APIKey anon key，同时用于 apikey 与 Authorization 头。
	APIKey     string
	HTTPClient *http.Client
}

type Client struct {
	config Config
}

func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.URL) == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("supabase api key is required")
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	config.URL = strings.TrimRight(strings.TrimSpace(config.URL), "/")
	return &Client{config: config}, nil
}

// RPC 调用一个存储过程：POST {url}/rest/v1/rpc/{fn}，结果解码到 out。
func (c *Client) RPC(ctx context.Context, fn string, params any, out any) error {
	bodyBytes, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode rpc params: %w", err)
	}

	url := fmt.Sprintf("%s/rest/v1/rpc/%s", c.config.URL, fn)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.config.APIKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s failed: %w", fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return fmt.Errorf("rpc %s failed with status %d: %s", fn, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode rpc %s response: %w", fn, err)
	}
	return nil
}
