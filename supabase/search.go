package supabase

import (
	"context"

	"github.com/shopspring/decimal"
)

// FuzzySearchParams 是存储过程 search_transactions_fuzzy 的命名参数。
// 指针/切片字段为 nil 时以 null 下发，由存储过程按"不过滤"处理。
type FuzzySearchParams struct {
	Keyword    *string          `json:"p_keyword"`
	Categories []string         `json:"p_categories"`
	Type       *string          `json:"p_type"`
	Accounts   []string         `json:"p_accounts"`
	Tags       []string         `json:"p_tags"`
	StartDate  *string          `json:"p_start_date"`
	EndDate    *string          `json:"p_end_date"`
	MinAmount  *decimal.Decimal `json:"p_min_amount"`
	MaxAmount  *decimal.Decimal `json:"p_max_amount"`
	Limit      int              `json:"p_limit"`
	Offset     int              `json:"p_offset"`
}

// TransactionRow 是模糊检索返回的一行。
type TransactionRow struct {
	Date              string          `json:"date"`
	PrimaryCategory   string          `json:"primary_category"`
	SecondaryCategory string          `json:"secondary_category"`
	Amount            decimal.Decimal `json:"amount"`
	Type              string          `json:"type"`
	Account           string          `json:"account"`
	Currency          string          `json:"currency"`
	Tags              []string        `json:"tags"`
	Note              string          `json:"note"`
	MatchedField      string          `json:"matched_field"`
}

// SearchTransactionsFuzzy 调用服务端模糊检索。
// 参数校验由调用方（fintools 包）完成，这里只负责传输。
func (c *Client) SearchTransactionsFuzzy(ctx context.Context, params FuzzySearchParams) ([]TransactionRow, error) {
	var rows []TransactionRow
	if err := c.RPC(ctx, "search_transactions_fuzzy", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
