package fintools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fincat-app/finchat/finance"
	"github.com/fincat-app/finchat/supabase"
)

const (
	defaultLocalLimit  = 10
	defaultRemoteLimit = 50
	maxRemoteLimit     = 500
	maxKeywordLen      = 200
)

// dateFormatRE 只校验格式，不校验日历合法性（2024-13-01 也会通过）。
// 日历层面的判断留给存储端，与前端校验行为保持一致。
var dateFormatRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type searchTransactionsArgs struct {
	Category  string           `json:"category"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	MinAmount *decimal.Decimal `json:"minAmount"`
	MaxAmount *decimal.Decimal `json:"maxAmount"`
	Limit     int              `json:"limit"`
}

func searchTransactionsTool(cache *finance.Cache) Tool {
	return Tool{
		Name:        "search_transactions",
		Description: "在本地全部交易中按分类、日期区间和金额区间检索，返回匹配总额与明细。",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "一级分类，如 餐饮、交通",
				},
				"startDate": map[string]any{
					"type":        "string",
					"description": "起始日期（含），格式 YYYY-MM-DD",
				},
				"endDate": map[string]any{
					"type":        "string",
					"description": "结束日期（含），格式 YYYY-MM-DD",
				},
				"minAmount": map[string]any{
					"type":        "number",
					"description": "最小金额（含）",
				},
				"maxAmount": map[string]any{
					"type":        "number",
					"description": "最大金额（含）",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "返回条数上限，默认 10",
				},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var params searchTransactionsArgs
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			limit := params.Limit
			if limit <= 0 {
				limit = defaultLocalLimit
			}

			// 顺序过滤链；日期按字典序比较（YYYY-MM-DD 下与时间序一致）
			matched := make([]finance.Transaction, 0)
			total := decimal.Zero
			for _, t := range cache.All() {
				if params.Category != "" && t.PrimaryCategory != params.Category {
					continue
				}
				if params.StartDate != "" && t.Date < params.StartDate {
					continue
				}
				if params.EndDate != "" && t.Date > params.EndDate {
					continue
				}
				if params.MinAmount != nil && t.Amount.LessThan(*params.MinAmount) {
					continue
				}
				if params.MaxAmount != nil && t.Amount.GreaterThan(*params.MaxAmount) {
					continue
				}
				matched = append(matched, t)
				total = total.Add(t.Amount)
			}

			count := len(matched)
			if len(matched) > limit {
				matched = matched[:limit]
			}

			return map[string]any{
				"count":        count,
				"total":        total.String(),
				"transactions": matched,
			}, nil
		},
	}
}

type supabaseSearchArgs struct {
	Keyword    string           `json:"keyword"`
	Categories []string         `json:"categories"`
	Type       string           `json:"type"`
	Accounts   []string         `json:"accounts"`
	Tags       []string         `json:"tags"`
	StartDate  string           `json:"startDate"`
	EndDate    string           `json:"endDate"`
	MinAmount  *decimal.Decimal `json:"minAmount"`
	MaxAmount  *decimal.Decimal `json:"maxAmount"`
	Limit      any              `json:"limit"`
	Offset     int              `json:"offset"`
}

// normalizeLimit 把模型给出的 limit 收敛到 [1,500]：
// 缺失、非数字或 NaN 一律按默认值 50 处理。
func normalizeLimit(v any) int {
	var f float64
	switch value := v.(type) {
	case nil:
		return defaultRemoteLimit
	case float64:
		f = value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return defaultRemoteLimit
		}
		f = parsed
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return defaultRemoteLimit
		}
		f = parsed
	default:
		return defaultRemoteLimit
	}
	if math.IsNaN(f) {
		return defaultRemoteLimit
	}
	n := int(f)
	if n < 1 {
		return 1
	}
	if n > maxRemoteLimit {
		return maxRemoteLimit
	}
	return n
}

// validateSupabaseSearch 在发起网络请求前本地校验参数。
// 任何校验失败直接短路，不产生网络往返。
func validateSupabaseSearch(params *supabaseSearchArgs) error {
	if params.StartDate != "" && !dateFormatRE.MatchString(params.StartDate) {
		return fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", params.StartDate)
	}
	if params.EndDate != "" && !dateFormatRE.MatchString(params.EndDate) {
		return fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", params.EndDate)
	}
	if params.Type != "" && !finance.IsValidType(params.Type) {
		return fmt.Errorf("invalid transaction type %q: expected income, expense or transfer", params.Type)
	}
	params.Keyword = strings.TrimSpace(params.Keyword)
	if runes := []rune(params.Keyword); len(runes) > maxKeywordLen {
		params.Keyword = string(runes[:maxKeywordLen])
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return nil
}

func searchTransactionsSupabaseTool(remote *supabase.Client) Tool {
	return Tool{
		Name: "search_transactions_supabase",
		Description: "在 Supabase 后端按关键词模糊检索交易（匹配分类、账户、标签、备注），" +
			"支持多值过滤与分页，适合本地缓存覆盖不到的大范围查询。",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"keyword": map[string]any{
					"type":        "string",
					"description": "模糊匹配关键词，最长 200 字符",
				},
				"categories": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "一级分类，多选",
				},
				"type": map[string]any{
					"type":        "string",
					"enum":        []string{"income", "expense", "transfer"},
					"description": "交易类型",
				},
				"accounts": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "账户，多选",
				},
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "标签，多选",
				},
				"startDate": map[string]any{
					"type":        "string",
					"description": "起始日期（含），格式 YYYY-MM-DD",
				},
				"endDate": map[string]any{
					"type":        "string",
					"description": "结束日期（含），格式 YYYY-MM-DD",
				},
				"minAmount": map[string]any{
					"type":        "number",
					"description": "最小金额（含）",
				},
				"maxAmount": map[string]any{
					"type":        "number",
					"description": "最大金额（含）",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "返回条数上限，1-500，默认 50",
				},
				"offset": map[string]any{
					"type":        "integer",
					"description": "分页偏移，默认 0",
				},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var params supabaseSearchArgs
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			if err := validateSupabaseSearch(&params); err != nil {
				return nil, err
			}

			rpcParams := supabase.FuzzySearchParams{
				Categories: params.Categories,
				Accounts:   params.Accounts,
				Tags:       params.Tags,
				MinAmount:  params.MinAmount,
				MaxAmount:  params.MaxAmount,
				Limit:      normalizeLimit(params.Limit),
				Offset:     params.Offset,
			}
			if params.Keyword != "" {
				rpcParams.Keyword = &params.Keyword
			}
			if params.Type != "" {
				rpcParams.Type = &params.Type
			}
			if params.StartDate != "" {
				rpcParams.StartDate = &params.StartDate
			}
			if params.EndDate != "" {
				rpcParams.EndDate = &params.EndDate
			}

			rows, err := remote.SearchTransactionsFuzzy(ctx, rpcParams)
			if err != nil {
				return nil, fmt.Errorf("remote search failed: %w", err)
			}

			return map[string]any{
				"count":        len(rows),
				"transactions": rows,
			}, nil
		},
	}
}
