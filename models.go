package finchat

import "strings"

const (
	// DefaultBaseURL 是默认的 OpenAI 兼容 chat-completions 服务地址。
	DefaultBaseURL = "https://api.deepseek.com/v1"
	// DefaultModelID 是设置中未指定模型时使用的默认模型。
	DefaultModelID = "deepseek-chat"
	// DefaultTemperature 与前端设置页保持一致。
	DefaultTemperature = 0.7
)

// presetModelIDs 是设置页下拉框内置的模型（任意 OpenAI 兼容模型都可手工填写）。
var presetModelIDs = []PresetModel{
	{DefaultModelID, "DeepSeek Chat"},
	{"deepseek-reasoner", "DeepSeek Reasoner"},
	{"qwen-plus", "Qwen Plus"},
	{"qwen-turbo", "Qwen Turbo"},
	{"glm-4.5", "GLM-4.5"},
	{"moonshot-v1-8k", "Moonshot v1 8K"},
	{"gpt-4o-mini", "GPT-4o mini"},
}

type PresetModel struct {
	ID   string
	Name string
}

// PresetModels 返回内置模型列表，默认模型排在首位。
func PresetModels() []PresetModel {
	out := make([]PresetModel, len(presetModelIDs))
	copy(out, presetModelIDs)
	return out
}

// IsPresetModelID 判断模型 ID 是否为内置模型。
// 非内置模型同样允许使用，该函数仅用于设置页标注。
func IsPresetModelID(modelID string) bool {
	trimmed := strings.TrimSpace(modelID)
	if trimmed == "" {
		return false
	}
	for _, m := range presetModelIDs {
		if m.ID == trimmed {
			return true
		}
	}
	return false
}

// NormalizeBaseURL 去掉末尾的 / 与 /chat/completions 后缀，
// 兼容用户把完整端点粘贴进设置页的情况。
func NormalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return DefaultBaseURL
	}
	trimmed = strings.TrimRight(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, "/chat/completions")
	if trimmed == "" {
		return DefaultBaseURL
	}
	return trimmed
}
