package explorer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRow is the persisted form of a committed chain event. Payroll
// attributes are lifted into indexed columns for filtering.
type EventRow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Height     uint64    `gorm:"index;not null"`
	TxHash     string    `gorm:"size:66;index;not null"`
	LogIndex   int       `gorm:"not null"`
	Type       string    `gorm:"size:64;index;not null"`
	Employer   string    `gorm:"size:64;index"`
	Employee   string    `gorm:"size:64;index"`
	Token      string    `gorm:"size:64;index"`
	Amount     string    `gorm:"size:80"`
	Attributes string    `gorm:"type:text"`
	EmittedAt  time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// TableName pins the table name independently of the struct name.
func (EventRow) TableName() string { return "events" }

// AutoMigrate performs all schema migrations for the explorer index.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRow{})
}
