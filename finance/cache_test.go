package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func txn(date string, amount string, typ TransactionType, category string) Transaction {
	return Transaction{
		Date:            date,
		Amount:          decimal.RequireFromString(amount),
		Type:            typ,
		PrimaryCategory: category,
	}
}

func TestCacheReplace_Totals(t *testing.T) {
	c := NewCache()
	c.Replace([]Transaction{
		txn("2024-01-05", "8000", TypeIncome, "工资"),
		txn("2024-01-08", "56.50", TypeExpense, "餐饮"),
		txn("2024-02-10", "1200", TypeExpense, "住房"),
		txn("2024-03-01", "500", TypeTransfer, "转账"),
	})

	income, expense, balance := c.Totals()
	require.Equal(t, "8000", income.String())
	require.Equal(t, "1256.5", expense.String())
	require.Equal(t, "6743.5", balance.String())
}

func TestCacheReplace_TransferExcludedFromTotals(t *testing.T) {
	c := NewCache()
	c.Replace([]Transaction{
		txn("2024-03-01", "500", TypeTransfer, "转账"),
	})

	income, expense, _ := c.Totals()
	require.True(t, income.IsZero())
	require.True(t, expense.IsZero())
}

func TestCacheYearBuckets(t *testing.T) {
	c := NewCache()
	c.Replace([]Transaction{
		txn("2023-12-31", "100", TypeExpense, "餐饮"),
		txn("2024-01-01", "200", TypeExpense, "餐饮"),
		txn("2024-06-15", "300", TypeExpense, "交通"),
	})

	y2024, ok := c.Year(2024)
	require.True(t, ok)
	require.Len(t, y2024, 2)

	_, ok = c.Year(2020)
	require.False(t, ok)

	// selectedYear 默认取最大年份
	require.Equal(t, 2024, c.SelectedYear())
	require.Equal(t, []int{2024, 2023}, c.AvailableYears())
}

func TestCacheSetSelectedYear(t *testing.T) {
	c := NewCache()
	c.Replace([]Transaction{txn("2024-01-01", "1", TypeExpense, "餐饮")})
	c.SetSelectedYear(2023)
	require.Equal(t, 2023, c.SelectedYear())

	// 已手工选择年份后 Replace 不再覆盖
	c.Replace([]Transaction{txn("2025-01-01", "1", TypeExpense, "餐饮")})
	require.Equal(t, 2023, c.SelectedYear())
}

func TestTransactionYearMonth(t *testing.T) {
	require.Equal(t, 2024, txn("2024-08-31", "1", TypeExpense, "x").Year())
	require.Equal(t, 8, txn("2024-08-31", "1", TypeExpense, "x").Month())
	require.Equal(t, 0, Transaction{Date: "bad"}.Year())
	require.Equal(t, 0, Transaction{Date: "2024/08/31"}.Month())
	require.Equal(t, 0, Transaction{Date: "2024-13-01"}.Month())
}
