// Package fintools 定义财务助手可被模型调用的工具集：
// 收支总览、月度汇总、分类分析、本地检索与 Supabase 远程模糊检索。
//
// 执行层的约定：任何失败（未知工具、参数解析失败、工具内部错误、远程错误）
// 都转成 {"error":...} JSON 串作为工具结果喂回模型，绝不向编排层抛错。
package fintools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fincat-app/finchat/finance"
	"github.com/fincat-app/finchat/openaiapi"
	"github.com/fincat-app/finchat/supabase"
)

// Handler 执行一次工具调用。返回值会被 JSON 序列化后作为工具结果。
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool 是一个可被模型调用的工具声明与实现。
// Parameters 必须覆盖 Handler 读取的每个参数，两者不会互相校验。
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry 是静态工具表，构造后不再变更。
// 声明顺序即下发给模型的顺序；分发按名字查表。
type Registry struct {
	tools  []Tool
	byName map[string]Handler
}

// New 构建默认工具表。remote 为 nil 时不注册远程检索工具
// （未配置 Supabase 的纯本地模式）。
func New(cache *finance.Cache, remote *supabase.Client) *Registry {
	r := &Registry{byName: make(map[string]Handler)}
	r.register(financialHealthTool(cache))
	r.register(monthlySummaryTool(cache))
	r.register(categoryAnalysisTool(cache))
	r.register(searchTransactionsTool(cache))
	if remote != nil {
		r.register(searchTransactionsSupabaseTool(remote))
	}
	return r
}

func (r *Registry) register(tool Tool) {
	r.tools = append(r.tools, tool)
	r.byName[tool.Name] = tool.Handler
}

// Tools 返回随第一轮请求下发的工具声明。
func (r *Registry) Tools() []openaiapi.Tool {
	out := make([]openaiapi.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, openaiapi.Tool{
			Type: "function",
			Function: openaiapi.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}

// Execute 分发并执行一次模型发起的调用，返回 JSON 串结果。
func (r *Registry) Execute(ctx context.Context, name, arguments string) string {
	handler, ok := r.byName[name]
	if !ok {
		return errorJSON(fmt.Sprintf("unknown tool: %s", name))
	}

	args := json.RawMessage(arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return errorJSON(fmt.Sprintf("invalid tool arguments for %s: not valid JSON", name))
	}

	result, err := handler(ctx, args)
	if err != nil {
		return errorJSON(err.Error())
	}

	data, err := json.Marshal(result)
	if err != nil {
		return errorJSON(fmt.Sprintf("failed to encode result of %s: %v", name, err))
	}
	return string(data)
}

func errorJSON(message string) string {
	data, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(data)
}
