package kafka

import (
	"context"
	"fmt"
	"strings"

	"cbfeed/config"
	"cbfeed/pkg/coinbase"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cbfeed/storage/kafka")

// Sink publishes each raw frame to a topic, keyed by product id so a
// product's messages stay ordered within one partition.
type Sink struct {
	topic string
	prod  sarama.SyncProducer
}

func NewSink(cfg config.KafkaConfig) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: no brokers")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink: empty topic")
	}

	sc, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka sink: create producer: %w", err)
	}
	return newSink(p, cfg.Topic), nil
}

func newSink(p sarama.SyncProducer, topic string) *Sink {
	return &Sink{topic: topic, prod: p}
}

func (s *Sink) InsertOne(ctx context.Context, msg coinbase.Message) error {
	_, span := tracer.Start(ctx, "Kafka.InsertOne")
	defer span.End()

	pm := &sarama.ProducerMessage{
		Topic:     s.topic,
		Value:     sarama.ByteEncoder(msg.Raw),
		Timestamp: msg.ReceivedAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(msg.Type())},
		},
	}
	if id := msg.ProductID(); id != "" {
		pm.Key = sarama.StringEncoder(id)
	}

	partition, offset, err := s.prod.SendMessage(pm)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return fmt.Errorf("kafka send: %w", err)
	}
	span.SetAttributes(
		attribute.String("messaging.destination", s.topic),
		attribute.Int64("messaging.kafka.partition", int64(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	return nil
}

func (s *Sink) Close() error {
	return s.prod.Close()
}

func buildSaramaConfig(c config.KafkaConfig) (*sarama.Config, error) {
	sc := sarama.NewConfig()

	switch strings.ToLower(c.RequiredAcks) {
	case "all", "":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "leader":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("kafka sink: invalid RequiredAcks %q", c.RequiredAcks)
	}

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	if c.Timeout > 0 {
		sc.Producer.Timeout = c.Timeout
	}
	return sc, nil
}
