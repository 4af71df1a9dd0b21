package assistant

import (
	"strings"

	"github.com/fincat-app/finchat/openaiapi"
)

// toolCallBuilder 按流式片段拼装单个工具调用。
// name/arguments 由模型按 token 分片下发，只有流结束后整体才可解析。
type toolCallBuilder struct {
	id        string
	callType  string
	name      strings.Builder
	arguments strings.Builder
}

// toolCallAccumulator 以服务端分配的 index 为键累积工具调用片段。
// 多个并行调用的片段可能交错到达，跨 index 的顺序按首次出现记录。
type toolCallAccumulator struct {
	builders map[int]*toolCallBuilder
	order    []int
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{builders: make(map[int]*toolCallBuilder)}
}

func (a *toolCallAccumulator) absorb(fragment openaiapi.ToolCall) {
	b, ok := a.builders[fragment.Index]
	if !ok {
		b = &toolCallBuilder{}
		a.builders[fragment.Index] = b
		a.order = append(a.order, fragment.Index)
	}
	if b.id == "" && fragment.ID != "" {
		b.id = fragment.ID
	}
	if b.callType == "" && fragment.Type != "" {
		b.callType = fragment.Type
	}
	b.name.WriteString(fragment.Function.Name)
	b.arguments.WriteString(fragment.Function.Arguments)
}

func (a *toolCallAccumulator) empty() bool {
	return len(a.order) == 0
}

// finalize 把累积结果按首次出现顺序转为完整的工具调用列表。
func (a *toolCallAccumulator) finalize() []openaiapi.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	calls := make([]openaiapi.ToolCall, 0, len(a.order))
	for _, index := range a.order {
		b := a.builders[index]
		callType := b.callType
		if callType == "" {
			callType = "function"
		}
		calls = append(calls, openaiapi.ToolCall{
			ID:    b.id,
			Index: index,
			Type:  callType,
			Function: openaiapi.FunctionCall{
				Name:      b.name.String(),
				Arguments: b.arguments.String(),
			},
		})
	}
	return calls
}
