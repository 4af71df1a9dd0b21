package fintools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fincat-app/finchat/finance"
)

var decimalHundred = decimal.NewFromInt(100)

// percentOf 计算 part 占 total 的百分比字符串。
// total 为零时统一返回 "0%"，避免除零。
func percentOf(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "0%"
	}
	return part.Div(total).Mul(decimalHundred).StringFixed(1) + "%"
}

func financialHealthTool(cache *finance.Cache) Tool {
	return Tool{
		Name:        "get_financial_health",
		Description: "获取全部记账数据的收支总览：总收入、总支出、结余和储蓄率。",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			income, expense, balance := cache.Totals()

			// 收入为零时储蓄率按 0.0% 处理
			savingsRate := "0.0%"
			if !income.IsZero() {
				savingsRate = income.Sub(expense).Div(income).Mul(decimalHundred).StringFixed(1) + "%"
			}

			return map[string]any{
				"total_income":  income.String(),
				"total_expense": expense.String(),
				"balance":       balance.String(),
				"savings_rate":  savingsRate,
			}, nil
		},
	}
}

type monthlySummaryArgs struct {
	Year int `json:"year"`
}

type monthlyEntry struct {
	Month   int    `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

func monthlySummaryTool(cache *finance.Cache) Tool {
	return Tool{
		Name:        "get_monthly_summary",
		Description: "获取某一年每个月的收入与支出汇总，收支均为零的月份不返回。",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"year": map[string]any{
					"type":        "integer",
					"description": "年份，如 2024；不传时使用当前选中的年份",
				},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var params monthlySummaryArgs
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			year := params.Year
			if year == 0 {
				year = cache.SelectedYear()
			}

			txns, ok := cache.Year(year)
			if !ok {
				return nil, fmt.Errorf("no transactions recorded for year %d", year)
			}

			var income, expense [13]decimal.Decimal
			for _, t := range txns {
				month := t.Month()
				if month == 0 {
					continue
				}
				switch t.Type {
				case finance.TypeIncome:
					income[month] = income[month].Add(t.Amount)
				case finance.TypeExpense:
					expense[month] = expense[month].Add(t.Amount)
				}
			}

			months := make([]monthlyEntry, 0, 12)
			for m := 1; m <= 12; m++ {
				if income[m].IsZero() && expense[m].IsZero() {
					continue
				}
				months = append(months, monthlyEntry{
					Month:   m,
					Income:  income[m].String(),
					Expense: expense[m].String(),
				})
			}

			return map[string]any{"year": year, "months": months}, nil
		},
	}
}

type categoryAnalysisArgs struct {
	Type string `json:"type"`
	TopN int    `json:"topN"`
}

type categoryEntry struct {
	Category   string `json:"category"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
}

func categoryAnalysisTool(cache *finance.Cache) Tool {
	return Tool{
		Name:        "get_category_analysis",
		Description: "按一级分类统计当前选中年份的收入或支出构成，按占比降序返回前 N 个分类。",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{
					"type":        "string",
					"enum":        []string{"income", "expense"},
					"description": "统计收入还是支出",
				},
				"topN": map[string]any{
					"type":        "integer",
					"description": "返回的分类数量，默认 5",
				},
			},
			"required": []string{"type"},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var params categoryAnalysisArgs
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}

			typ := finance.TransactionType(params.Type)
			if typ != finance.TypeIncome && typ != finance.TypeExpense {
				return nil, fmt.Errorf("invalid type %q: expected income or expense", params.Type)
			}
			topN := params.TopN
			if topN <= 0 {
				topN = 5
			}

			year := cache.SelectedYear()
			txns, _ := cache.Year(year)

			sums := make(map[string]decimal.Decimal)
			total := decimal.Zero
			for _, t := range txns {
				if t.Type != typ {
					continue
				}
				sums[t.PrimaryCategory] = sums[t.PrimaryCategory].Add(t.Amount)
				total = total.Add(t.Amount)
			}

			categories := make([]categoryEntry, 0, len(sums))
			for category, amount := range sums {
				categories = append(categories, categoryEntry{
					Category:   category,
					Amount:     amount.String(),
					Percentage: percentOf(amount, total),
				})
			}
			sort.Slice(categories, func(i, j int) bool {
				a := decimal.RequireFromString(categories[i].Amount)
				b := decimal.RequireFromString(categories[j].Amount)
				if !a.Equal(b) {
					return a.GreaterThan(b)
				}
				return categories[i].Category < categories[j].Category
			})
			if len(categories) > topN {
				categories = categories[:topN]
			}

			return map[string]any{
				"type":       params.Type,
				"year":       year,
				"total":      total.String(),
				"categories": categories,
			}, nil
		},
	}
}
