// Package openaiapi 定义 OpenAI 兼容 chat-completions 接口的数据结构。
//
// 该包只覆盖 finchat 作为客户端消费接口时用到的子集：
// 请求体（messages/tools/tool_choice/stream）、流式响应块（delta 内容
// 与 tool_calls 片段）以及错误信封。不包含非流式响应与 usage 统计。
package openaiapi
