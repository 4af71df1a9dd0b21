// Package finchat 是个人/家庭记账应用的 AI 助手内核：
// 通过 OpenAI 兼容的 chat-completions SSE 接口做流式对话，
// 借助工具调用（tool calling）在本地交易缓存与 Supabase 后端上回答财务问题。
//
// 该仓库主要包含三类能力：
//  1. SDK：assistant 包提供流式 ChatModel（可供 Eino 使用）与两轮工具调用编排器
//  2. 工具层：fintools 包定义可被模型调用的财务分析/检索工具
//  3. HTTP 层：webapi 包把助手回答以 SSE 推送给前端页面
package finchat
