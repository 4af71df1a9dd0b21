package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType 交易类型，与前端筛选器取值一致。
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// IsValidType 判断是否为合法的交易类型取值。
func IsValidType(s string) bool {
	switch TransactionType(strings.TrimSpace(s)) {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// Transaction 是一条记账流水。
// Date 保持 "YYYY-MM-DD" 字符串形式，日期区间筛选按字典序比较，
// 与前端及 Supabase 存储的 date 列语义一致。
type Transaction struct {
	Date              string          `json:"date"`
	Amount            decimal.Decimal `json:"amount"`
	Type              TransactionType `json:"type"`
	PrimaryCategory   string          `json:"primaryCategory"`
	SecondaryCategory string          `json:"secondaryCategory,omitempty"`
	Account           string          `json:"account,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	Description       string          `json:"description,omitempty"`
}

// Year 从 Date 中取出年份；格式不合法时返回 0。
func (t Transaction) Year() int {
	if len(t.Date) < 4 {
		return 0
	}
	year := 0
	for _, r := range t.Date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// Month 从 Date 中取出月份（1-12）；格式不合法时返回 0。
func (t Transaction) Month() int {
	if len(t.Date) < 7 || t.Date[4] != '-' {
		return 0
	}
	month := 0
	for _, r := range t.Date[5:7] {
		if r < '0' || r > '9' {
			return 0
		}
		month = month*10 + int(r-'0')
	}
	if month < 1 || month > 12 {
		return 0
	}
	return month
}
