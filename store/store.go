// Package store 用 SQLite 持久化账目，程序启动时把全部记录装进内存缓存。
package store

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fincat-app/finchat/finance"
)

// TransactionRecord 是账目的数据库映射。金额以十进制字符串存储，避免浮点误差。
type TransactionRecord struct {
	ID                uint   `gorm:"primaryKey"`
	Date              string `gorm:"size:10;index"`
	Amount            string `gorm:"size:32"`
	Type              string `gorm:"size:16;index"`
	PrimaryCategory   string `gorm:"size:64"`
	SecondaryCategory string `gorm:"size:64"`
	Account           string `gorm:"size:64"`
	Currency          string `gorm:"size:8"`
	Tags              string `gorm:"size:256"`
	Description       string `gorm:"size:512"`
}

func (TransactionRecord) TableName() string { return "transactions" }

// Store 包装一个 gorm 连接。
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）path 指向的数据库并迁移表结构。
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&TransactionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate transactions table: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveBatch 批量写入账目。
func (s *Store) SaveBatch(txns []finance.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	records := make([]TransactionRecord, 0, len(txns))
	for _, t := range txns {
		records = append(records, recordFromTransaction(t))
	}
	if err := s.db.CreateInBatches(records, 200).Error; err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// LoadAll 按日期顺序读出全部账目。
func (s *Store) LoadAll() ([]finance.Transaction, error) {
	var records []TransactionRecord
	if err := s.db.Order("date").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	txns := make([]finance.Transaction, 0, len(records))
	for _, r := range records {
		t, err := r.toTransaction()
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// Count 返回账目总数。
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&TransactionRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Hydrate 把数据库里的全部账目装进缓存。
func (s *Store) Hydrate(cache *finance.Cache) error {
	txns, err := s.LoadAll()
	if err != nil {
		return err
	}
	cache.Replace(txns)
	return nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func recordFromTransaction(t finance.Transaction) TransactionRecord {
	return TransactionRecord{
		Date:              t.Date,
		Amount:            t.Amount.String(),
		Type:              string(t.Type),
		PrimaryCategory:   t.PrimaryCategory,
		SecondaryCategory: t.SecondaryCategory,
		Account:           t.Account,
		Currency:          t.Currency,
		Tags:              strings.Join(t.Tags, ","),
		Description:       t.Description,
	}
}

func (r TransactionRecord) toTransaction() (finance.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return finance.Transaction{}, fmt.Errorf("record %d: bad amount %q: %w", r.ID, r.Amount, err)
	}
	var tags []string
	if r.Tags != "" {
		tags = strings.Split(r.Tags, ",")
	}
	return finance.Transaction{
		Date:              r.Date,
		Amount:            amount,
		Type:              finance.TransactionType(r.Type),
		PrimaryCategory:   r.PrimaryCategory,
		SecondaryCategory: r.SecondaryCategory,
		Account:           r.Account,
		Currency:          r.Currency,
		Tags:              tags,
		Description:       r.Description,
	}, nil
}
