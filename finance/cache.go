package finance

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Cache 是只读工具消费的内存交易缓存。
// 数据由外部装载层（store 包或测试）通过 Replace 整体替换，
// 替换时一次性重建按年分桶与总额，工具侧只做读取。
type Cache struct {
	mu           sync.RWMutex
	transactions []Transaction
	byYear       map[int][]Transaction
	totalIncome  decimal.Decimal
	totalExpense decimal.Decimal
	selectedYear int
}

func NewCache() *Cache {
	return &Cache{byYear: make(map[int][]Transaction)}
}

// Replace 用新的交易集合整体替换缓存内容并重建索引。
// selectedYear 未设置过时取数据中最大的年份。
func (c *Cache) Replace(txns []Transaction) {
	byYear := make(map[int][]Transaction)
	income := decimal.Zero
	expense := decimal.Zero
	maxYear := 0

	for _, t := range txns {
		year := t.Year()
		if year > 0 {
			byYear[year] = append(byYear[year], t)
			if year > maxYear {
				maxYear = year
			}
		}
		switch t.Type {
		case TypeIncome:
			income = income.Add(t.Amount)
		case TypeExpense:
			expense = expense.Add(t.Amount)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions = txns
	c.byYear = byYear
	c.totalIncome = income
	c.totalExpense = expense
	if c.selectedYear == 0 {
		c.selectedYear = maxYear
	}
}

// All 返回全部交易（共享底层数组，调用方不得修改）。
func (c *Cache) All() []Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transactions
}

// Year 返回指定年份的交易分桶。
func (c *Cache) Year(year int) ([]Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	txns, ok := c.byYear[year]
	return txns, ok
}

// Totals 返回预聚合的总收入/总支出/结余。
func (c *Cache) Totals() (income, expense, balance decimal.Decimal) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalIncome, c.totalExpense, c.totalIncome.Sub(c.totalExpense)
}

// SelectedYear 返回当前选中的年份，0 表示无数据。
func (c *Cache) SelectedYear() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedYear
}

func (c *Cache) SetSelectedYear(year int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedYear = year
}

// AvailableYears 返回有交易数据的年份，降序排列。
func (c *Cache) AvailableYears() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	years := make([]int, 0, len(c.byYear))
	for year := range c.byYear {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
