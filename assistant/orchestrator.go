package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fincat-app/finchat/openaiapi"
)

// ErrBusy 表示上一个提问尚未完成。同一会话同时只允许一个在途请求，
// 与前端禁用发送按钮的语义一致。
var ErrBusy = errors.New("a question is already being answered")

// DefaultSystemPrompt 是财务助手的默认系统提示词。
const DefaultSystemPrompt = "你是一个专业的家庭财务助手。你可以调用工具查询用户的记账数据，" +
	"回答收支、分类、储蓄率等问题。回答使用用户的语言，金额保留两位小数，不要编造数据；" +
	"工具返回 error 字段时如实说明查询失败的原因。"

// Message 是会话中一条对外展示的消息。
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"` // user / assistant
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Events 把一轮问答过程中的流式事件回调给 UI 层；任意字段可为 nil。
type Events struct {
	// OnDelta 收到一段正文增量（两轮都会触发）。
	OnDelta func(delta string)
	// OnReasoning 收到一段思考增量（deepseek-reasoner 等模型）。
	OnReasoning func(delta string)
	// OnToolCall 在某个工具即将执行前触发。
	OnToolCall func(name string)
}

// ToolExecutor 由 fintools 包实现：提供工具声明并执行模型发起的调用。
// Execute 永不向外抛错，失败以 {"error":...} JSON 串返回给模型。
type ToolExecutor interface {
	Tools() []openaiapi.Tool
	Execute(ctx context.Context, name, arguments string) string
}

type Config struct {
	Model        string
	BaseURL      string
	APIKey       string
	HTTPClient   *http.Client
	Temperature  *float64
	SystemPrompt string // 为空时使用 DefaultSystemPrompt
}

// Assistant 驱动两轮请求协议：
// 第一轮带工具声明提问，收齐正文或工具调用；
// 有工具调用时顺序执行，把结果连同第一轮输出一起发起第二轮，流出最终回答。
// 第二轮不再下发工具声明，一个用户回合最多一轮工具调用。
type Assistant struct {
	model        *ChatModel
	executor     ToolExecutor
	systemPrompt string

	mu       sync.Mutex
	history  []Message
	inFlight atomic.Bool
}

func New(cfg Config, executor ToolExecutor) (*Assistant, error) {
	if executor == nil {
		return nil, fmt.Errorf("tool executor is required")
	}
	model, err := NewChatModel(ChatModelConfig{
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		HTTPClient:  cfg.HTTPClient,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}
	prompt := strings.TrimSpace(cfg.SystemPrompt)
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return &Assistant{
		model:        model,
		executor:     executor,
		systemPrompt: prompt,
	}, nil
}

// Ask 处理一个用户提问，返回最终的助手消息。
// 用户消息在请求发出前就进入历史，失败时不回滚（错误由调用方展示）。
func (a *Assistant) Ask(ctx context.Context, question string, ev Events) (*Message, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.inFlight.Store(false)

	a.appendHistory(Message{ID: openaiapi.NewMessageID(), Role: "user", Content: question})
	base := a.buildRequestMessages()

	// 第一轮：带工具声明
	first, err := a.model.doStreamRequest(ctx, base, a.executor.Tools(), streamCallbacks{
		onDelta:     ev.OnDelta,
		onReasoning: ev.OnReasoning,
	})
	if err != nil {
		return nil, err
	}

	if len(first.ToolCalls) == 0 {
		final := Message{
			ID:        openaiapi.NewMessageID(),
			Role:      "assistant",
			Content:   first.Content,
			Reasoning: first.Reasoning,
		}
		a.appendHistory(final)
		return &final, nil
	}

	// 顺序执行全部工具调用，保持模型下发的顺序
	toolMessages := make([]openaiapi.Message, 0, len(first.ToolCalls))
	for _, call := range first.ToolCalls {
		if ev.OnToolCall != nil {
			ev.OnToolCall(call.Function.Name)
		}
		result := a.executor.Execute(ctx, call.Function.Name, call.Function.Arguments)
		toolMessages = append(toolMessages, openaiapi.ToolResultMessage(call.ID, result))
	}

	// 第二轮：回放第一轮输出与工具结果，不再下发工具声明
	second := make([]openaiapi.Message, 0, len(base)+1+len(toolMessages))
	second = append(second, base...)
	second = append(second, openaiapi.AssistantMessage(first.Content, first.ToolCalls))
	second = append(second, toolMessages...)

	finalResult, err := a.model.doStreamRequest(ctx, second, nil, streamCallbacks{
		onDelta:     ev.OnDelta,
		onReasoning: ev.OnReasoning,
	})
	if err != nil {
		return nil, err
	}

	final := Message{
		ID:        openaiapi.NewMessageID(),
		Role:      "assistant",
		Content:   finalResult.Content,
		Reasoning: finalResult.Reasoning,
	}
	a.appendHistory(final)
	return &final, nil
}

// History 返回会话消息副本。
func (a *Assistant) History() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.history))
	copy(out, a.history)
	return out
}

// Reset 清空会话历史。
func (a *Assistant) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

func (a *Assistant) appendHistory(msg Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, msg)
}

// buildRequestMessages 组装请求消息：固定系统提示词加历史回合。
// 历史回合只回放 role+content，早先回合的工具调用元数据不再下发。
func (a *Assistant) buildRequestMessages() []openaiapi.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]openaiapi.Message, 0, len(a.history)+1)
	out = append(out, openaiapi.SystemMessage(a.systemPrompt))
	for _, msg := range a.history {
		out = append(out, openaiapi.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}
