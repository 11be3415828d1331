package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gainjar/core"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Index stores committed events in SQLite for off-chain queries.
type Index struct {
	db *gorm.DB
}

// Open creates or opens the SQLite index at path.
func Open(path string) (*Index, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("explorer: index path required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("explorer: open %s: %w", path, err)
	}
	return New(db)
}

// New wraps an existing GORM handle and migrates the schema.
func New(db *gorm.DB) (*Index, error) {
	if db == nil {
		return nil, errors.New("explorer: database required")
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("explorer: migrate: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying connection pool.
func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IndexEvents implements core.EventSink.
func (i *Index) IndexEvents(ctx context.Context, records []core.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]EventRow, 0, len(records))
	for _, record := range records {
		attrs, err := json.Marshal(record.Attrs)
		if err != nil {
			return fmt.Errorf("explorer: encode attributes: %w", err)
		}
		rows = append(rows, EventRow{
			ID:         uuid.New(),
			Height:     record.Height,
			TxHash:     record.TxHash,
			LogIndex:   record.Index,
			Type:       record.Type,
			Employer:   record.Attrs["employer"],
			Employee:   record.Attrs["employee"],
			Token:      record.Attrs["token"],
			Amount:     record.Attrs["amount"],
			Attributes: string(attrs),
			EmittedAt:  record.Timestamp,
		})
	}
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
}

// Filter narrows an event query. Zero fields match everything.
type Filter struct {
	Type       string
	Employer   string
	Employee   string
	Token      string
	FromHeight uint64
	Limit      int
}

// Events returns matching events ordered by height and log index.
func (i *Index) Events(ctx context.Context, filter Filter) ([]core.EventRecord, error) {
	query := i.db.WithContext(ctx).Model(&EventRow{})
	if v := strings.TrimSpace(filter.Type); v != "" {
		query = query.Where("type = ?", v)
	}
	if v := strings.TrimSpace(filter.Employer); v != "" {
		query = query.Where("employer = ?", v)
	}
	if v := strings.TrimSpace(filter.Employee); v != "" {
		query = query.Where("employee = ?", v)
	}
	if v := strings.TrimSpace(filter.Token); v != "" {
		query = query.Where("token = ?", v)
	}
	if filter.FromHeight > 0 {
		query = query.Where("height >= ?", filter.FromHeight)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	var rows []EventRow
	if err := query.Order("height ASC").Order("log_index ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("explorer: query events: %w", err)
	}
	out := make([]core.EventRecord, 0, len(rows))
	for _, row := range rows {
		attrs := map[string]string{}
		if row.Attributes != "" {
			if err := json.Unmarshal([]byte(row.Attributes), &attrs); err != nil {
				return nil, fmt.Errorf("explorer: decode attributes: %w", err)
			}
		}
		out = append(out, core.EventRecord{
			Height:    row.Height,
			TxHash:    row.TxHash,
			Index:     row.LogIndex,
			Timestamp: row.EmittedAt.UTC(),
			Type:      row.Type,
			Attrs:     attrs,
		})
	}
	return out, nil
}
