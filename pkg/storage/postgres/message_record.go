package postgres

import (
	"time"

	"github.com/google/uuid"
)

// MessageRecord is one feed message stored in the database.
type MessageRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Type      string `gorm:"type:varchar(32);not null;index:idx_feed_message_type"`
	ProductID string `gorm:"type:varchar(32);index:idx_feed_message_product_received"`
	Sequence  *int64

	// raw frame as received
	Payload string `gorm:"type:jsonb;not null"`

	ReceivedAt time.Time `gorm:"not null;index:idx_feed_message_product_received"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (MessageRecord) TableName() string {
	return "feed_message"
}
