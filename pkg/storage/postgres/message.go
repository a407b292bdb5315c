package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cbfeed/pkg/coinbase"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cbfeed/storage/postgres")

// InsertOne stores msg as a feed_message row.
func (p *PostgresClient) InsertOne(ctx context.Context, msg coinbase.Message) error {
	ctx, span := tracer.Start(ctx, "Postgres.InsertOne")
	defer span.End()

	record := ToMessageRecord(msg)
	span.SetAttributes(
		attribute.String("feed.type", record.Type),
		attribute.String("feed.product_id", record.ProductID),
	)

	if err := p.DB.WithContext(ctx).Create(record).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("insert feed message: %w", err)
	}
	return nil
}

// ListByProduct returns the newest messages for productID, newest first.
func (p *PostgresClient) ListByProduct(ctx context.Context, productID string, limit int) ([]MessageRecord, error) {
	var records []MessageRecord
	err := p.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("received_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *PostgresClient) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tx := p.DB.WithContext(ctx).
		Where("received_at < ?", before).
		Delete(&MessageRecord{})
	return tx.RowsAffected, tx.Error
}

// ToMessageRecord converts a decoded message into a MessageRecord for DB insertion.
func ToMessageRecord(msg coinbase.Message) *MessageRecord {
	record := &MessageRecord{
		ID:         uuid.New(),
		Type:       msg.Type(),
		ProductID:  msg.ProductID(),
		Payload:    string(msg.Raw),
		ReceivedAt: msg.ReceivedAt,
	}
	if record.Type == "" {
		record.Type = "unknown"
	}
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now()
	}

	if obj, ok := msg.Data.(map[string]any); ok {
		if seq, ok := obj["sequence"].(float64); ok {
			s := int64(seq)
			record.Sequence = &s
		}
	}

	// messages built without a raw frame are stored from their decoded value
	if len(msg.Raw) == 0 {
		b, _ := json.Marshal(msg.Data)
		record.Payload = string(b)
	}

	return record
}
