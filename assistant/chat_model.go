package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/fincat-app/finchat"
	"github.com/fincat-app/finchat/openaiapi"
)

type ChatModelConfig struct {
	Model       string
	BaseURL     string // 形如 https://api.deepseek.com/v1，不含 /chat/completions
	APIKey      string
	HTTPClient  *http.Client
	Temperature *float64
}

// ChatModel 是基于 OpenAI 兼容 chat-completions SSE 接口的 ToolCallingChatModel 实现。
type ChatModel struct {
	config    ChatModelConfig
	tools     []*schema.ToolInfo
	wireTools []openaiapi.Tool
}

func NewChatModel(config ChatModelConfig) (*ChatModel, error) {
	if strings.TrimSpace(config.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Temperature == nil {
		temperature := finchat.DefaultTemperature
		config.Temperature = &temperature
	}
	return &ChatModel{config: config}, nil
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einoModel.Option) (*schema.Message, error) {
	result, err := m.doStreamRequest(ctx, messagesFromSchema(input), m.wireTools, streamCallbacks{})
	if err != nil {
		return nil, err
	}
	msg := schema.AssistantMessage(result.Content, nil)
	for _, call := range result.ToolCalls {
		index := call.Index
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
			ID:    call.ID,
			Type:  call.Type,
			Index: &index,
			Function: schema.FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return msg, nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, sw := schema.Pipe[*schema.Message](64)
	go func() {
		defer sw.Close()
		_, err := m.doStreamRequest(ctx, messagesFromSchema(input), m.wireTools, streamCallbacks{
			onDelta: func(delta string) {
				if delta == "" {
					return
				}
				sw.Send(&schema.Message{Role: schema.Assistant, Content: delta}, nil)
			},
		})
		if err != nil {
			sw.Send(nil, err)
		}
	}()
	return sr, nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (einoModel.ToolCallingChatModel, error) {
	cloned := *m
	cloned.tools = tools
	return &cloned, nil
}

// WithWireTools 设置随请求下发的 tools 数组（JSON Schema 形式）。
func (m *ChatModel) WithWireTools(tools []openaiapi.Tool) *ChatModel {
	cloned := *m
	cloned.wireTools = tools
	return &cloned
}

// streamCallbacks 把流式事件回调给上层；任意字段可为 nil。
type streamCallbacks struct {
	onDelta     func(delta string)
	onReasoning func(delta string)
}

// streamResult 是一轮流式响应结束后的完整结果。
type streamResult struct {
	Content   string
	Reasoning string
	ToolCalls []openaiapi.ToolCall
}

func (m *ChatModel) doStreamRequest(ctx context.Context, messages []openaiapi.Message, tools []openaiapi.Tool, cb streamCallbacks) (*streamResult, error) {
	payload := openaiapi.ChatRequest{
		Model:       m.config.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: m.config.Temperature,
	}
	if len(tools) > 0 {
		payload.Tools = tools
		payload.ToolChoice = "auto"
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	url := strings.TrimRight(m.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", m.config.APIKey))
	req.Header.Set("Accept", "text/event-stream")

	resp, err := m.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("chat request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return readChatSSE(ctx, resp.Body, cb)
}

// readChatSSE 消费 chat-completions 的 SSE 流。
// 每个事件是一行 `data: {...}`，以 `data: [DONE]` 结束；
// 帧可能在任意字节处被分块，bufio 的按行读取保证重组结果与分块方式无关。
// 解析失败的帧跳过并记一条日志，单个坏帧不中断整个流。
func readChatSSE(ctx context.Context, body io.Reader, cb streamCallbacks) (*streamResult, error) {
	reader := bufio.NewReader(body)
	var content strings.Builder
	var reasoning strings.Builder
	acc := newToolCallAccumulator()

	finish := func() *streamResult {
		return &streamResult{
			Content:   content.String(),
			Reasoning: reasoning.String(),
			ToolCalls: acc.finalize(),
		}
	}

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		atEOF := errors.Is(err, io.EOF)

		line = strings.TrimRight(line, "\r\n")
		if line != "" && strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return finish(), nil
			}
			if data != "" {
				handleChatChunk(data, &content, &reasoning, acc, cb)
			}
		}

		if atEOF {
			return finish(), nil
		}
	}
}

func handleChatChunk(data string, content, reasoning *strings.Builder, acc *toolCallAccumulator, cb streamCallbacks) {
	var chunk openaiapi.ChatChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		log.Printf("[finchat] skip malformed stream frame: %v", err)
		return
	}
	if len(chunk.Choices) == 0 {
		return
	}

	delta := chunk.Choices[0].Delta
	if delta.Content != nil && *delta.Content != "" {
		content.WriteString(*delta.Content)
		if cb.onDelta != nil {
			cb.onDelta(*delta.Content)
		}
	}
	if delta.ReasoningContent != "" {
		reasoning.WriteString(delta.ReasoningContent)
		if cb.onReasoning != nil {
			cb.onReasoning(delta.ReasoningContent)
		}
	}
	for _, fragment := range delta.ToolCalls {
		acc.absorb(fragment)
	}
}

func messagesFromSchema(input []*schema.Message) []openaiapi.Message {
	result := make([]openaiapi.Message, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.Tool:
			if msg.ToolCallID == "" {
				continue
			}
			result = append(result, openaiapi.ToolResultMessage(msg.ToolCallID, msg.Content))
		case schema.Assistant:
			out := openaiapi.Message{Role: "assistant", Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				call := openaiapi.ToolCall{
					ID:   tc.ID,
					Type: tc.Type,
					Function: openaiapi.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
				if tc.Index != nil {
					call.Index = *tc.Index
				}
				out.ToolCalls = append(out.ToolCalls, call)
			}
			result = append(result, out)
		default:
			result = append(result, openaiapi.Message{Role: string(msg.Role), Content: msg.Content})
		}
	}
	return result
}
