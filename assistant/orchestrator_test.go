package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fincat-app/finchat/openaiapi"
)

// stubExecutor 记录执行顺序并返回预设结果。
type stubExecutor struct {
	mu      sync.Mutex
	tools   []openaiapi.Tool
	results map[string]string
	calls   []string
}

func (s *stubExecutor) Tools() []openaiapi.Tool { return s.tools }

func (s *stubExecutor) Execute(_ context.Context, name, arguments string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if result, ok := s.results[name]; ok {
		return result
	}
	return fmt.Sprintf(`{"error":"unknown tool: %s"}`, name)
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{
		tools: []openaiapi.Tool{
			{Type: "function", Function: openaiapi.ToolFunction{
				Name:        "search_transactions",
				Description: "按条件检索交易",
				Parameters:  map[string]any{"type": "object"},
			}},
			{Type: "function", Function: openaiapi.ToolFunction{
				Name:        "get_financial_health",
				Description: "查询收支总览",
				Parameters:  map[string]any{"type": "object"},
			}},
		},
		results: map[string]string{
			"search_transactions":  `{"count":3,"total":"562.50"}`,
			"get_financial_health": `{"savings_rate":"35.0%"}`,
		},
	}
}

func newTestAssistant(t *testing.T, srv *httptest.Server) *Assistant {
	t.Helper()
	a, err := New(Config{
		Model:      "deepseek-chat",
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		HTTPClient: srv.Client(),
	}, newStubExecutor())
	require.NoError(t, err)
	return a
}

func writeSSE(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, frame := range frames {
		_, _ = fmt.Fprintf(w, "data: %s\n\n", frame)
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
}

func TestAsk_NoToolCalls_SingleRound(t *testing.T) {
	var requests []openaiapi.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiapi.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		writeSSE(w,
			`{"choices":[{"delta":{"content":"你好！"}}]}`,
			`{"choices":[{"delta":{"content":"有什么可以帮你？"}}]}`,
		)
	}))
	defer srv.Close()

	a := newTestAssistant(t, srv)

	var deltas string
	final, err := a.Ask(context.Background(), "你好", Events{
		OnDelta: func(delta string) { deltas += delta },
	})
	require.NoError(t, err)

	// 无工具调用时只有一轮请求
	require.Len(t, requests, 1)
	require.True(t, requests[0].Stream)
	require.Len(t, requests[0].Tools, 2)
	require.Equal(t, "auto", requests[0].ToolChoice)
	require.Equal(t, "system", requests[0].Messages[0].Role)
	require.Equal(t, "user", requests[0].Messages[1].Role)

	// 最终消息等于全部增量按到达顺序拼接
	require.Equal(t, "你好！有什么可以帮你？", final.Content)
	require.Equal(t, deltas, final.Content)

	history := a.History()
	require.Len(t, history, 2)
	require.Equal(t, "user", history[0].Role)
	require.Equal(t, "assistant", history[1].Role)
}

func TestAsk_ToolCallRunsTwoRounds(t *testing.T) {
	var requests []openaiapi.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiapi.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		if len(requests) == 1 {
			// 第一轮：分片下发一个工具调用
			writeSSE(w,
				`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"search_transactions","arguments":""}}]}}]}`,
				`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"category\":\"餐饮\",\"startDate\":\"2024-08-01\",\"endDate\":\"2024-08-31\"}"}}]}}]}`,
			)
			return
		}
		writeSSE(w, `{"choices":[{"delta":{"content":"2024年8月餐饮共支出 562.50 元。"}}]}`)
	}))
	defer srv.Close()

	executor := newStubExecutor()
	a, err := New(Config{
		Model:      "deepseek-chat",
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		HTTPClient: srv.Client(),
	}, executor)
	require.NoError(t, err)

	var toolNames []string
	final, err := a.Ask(context.Background(), "2024年8月餐饮支出多少？", Events{
		OnToolCall: func(name string) { toolNames = append(toolNames, name) },
	})
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Equal(t, []string{"search_transactions"}, toolNames)
	require.Equal(t, []string{"search_transactions"}, executor.calls)
	require.Contains(t, final.Content, "562.50")

	// 第二轮：回放合成 assistant 消息 + 工具结果，不再下发工具声明
	second := requests[1]
	require.Empty(t, second.Tools)
	require.Empty(t, second.ToolChoice)

	assistantMsg := second.Messages[len(second.Messages)-2]
	require.Equal(t, "assistant", assistantMsg.Role)
	require.Len(t, assistantMsg.ToolCalls, 1)
	require.Equal(t, "call_1", assistantMsg.ToolCalls[0].ID)
	require.Equal(t, "search_transactions", assistantMsg.ToolCalls[0].Function.Name)

	toolMsg := second.Messages[len(second.Messages)-1]
	require.Equal(t, "tool", toolMsg.Role)
	require.Equal(t, "call_1", toolMsg.ToolCallID)
	require.Equal(t, `{"count":3,"total":"562.50"}`, toolMsg.Content)
}

func TestAsk_TwoToolCallsExecuteInEmissionOrder(t *testing.T) {
	var requests []openaiapi.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiapi.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		if len(requests) == 1 {
			writeSSE(w,
				`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_a","type":"function","function":{"name":"get_financial_health","arguments":"{}"}}]}}]}`,
				`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"call_b","type":"function","function":{"name":"search_transactions","arguments":"{}"}}]}}]}`,
			)
			return
		}
		writeSSE(w, `{"choices":[{"delta":{"content":"汇总完成。"}}]}`)
	}))
	defer srv.Close()

	executor := newStubExecutor()
	a, err := New(Config{
		Model:      "deepseek-chat",
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		HTTPClient: srv.Client(),
	}, executor)
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), "分析一下我的财务状况", Events{})
	require.NoError(t, err)

	// 执行顺序与模型下发顺序一致
	require.Equal(t, []string{"get_financial_health", "search_transactions"}, executor.calls)

	// 两条 ToolMessage 在第二轮请求里保持同样的顺序
	second := requests[1]
	n := len(second.Messages)
	require.Equal(t, "call_a", second.Messages[n-2].ToolCallID)
	require.Equal(t, "call_b", second.Messages[n-1].ToolCallID)
}

func TestAsk_HTTPErrorKeepsUserMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprint(w, `{"error":{"message":"Rate limit reached"}}`)
	}))
	defer srv.Close()

	a := newTestAssistant(t, srv)

	_, err := a.Ask(context.Background(), "你好", Events{})
	require.ErrorContains(t, err, "status 429")
	require.ErrorContains(t, err, "Rate limit reached")

	// 失败不回滚用户消息
	history := a.History()
	require.Len(t, history, 1)
	require.Equal(t, "user", history[0].Role)
	require.Equal(t, "你好", history[0].Content)
}

func TestAsk_BusyGuard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, `{"choices":[{"delta":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	a := newTestAssistant(t, srv)
	a.inFlight.Store(true)

	_, err := a.Ask(context.Background(), "hello", Events{})
	require.ErrorIs(t, err, ErrBusy)

	a.inFlight.Store(false)
	_, err = a.Ask(context.Background(), "hello", Events{})
	require.NoError(t, err)
}

func TestAsk_HistoryReplayedAsRoleContentOnly(t *testing.T) {
	var requests []openaiapi.ChatRequest
	turn := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiapi.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		if turn == 0 {
			turn++
			writeSSE(w,
				`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_financial_health","arguments":"{}"}}]}}]}`,
			)
			return
		}
		writeSSE(w, `{"choices":[{"delta":{"content":"好的。"}}]}`)
	}))
	defer srv.Close()

	a := newTestAssistant(t, srv)

	_, err := a.Ask(context.Background(), "我的储蓄率是多少？", Events{})
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), "那支出呢？", Events{})
	require.NoError(t, err)

	// 第二个回合的首轮请求：历史只回放 role+content，不带工具调用元数据
	third := requests[2]
	for _, msg := range third.Messages {
		require.Empty(t, msg.ToolCalls)
		require.Empty(t, msg.ToolCallID)
	}
}

func TestNew_RequiresExecutor(t *testing.T) {
	_, err := New(Config{Model: "m", BaseURL: "https://x", APIKey: "k"}, nil)
	require.ErrorContains(t, err, "tool executor is required")
}
