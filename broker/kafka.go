package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// KafkaBus fans envelopes out over one Kafka topic. Every process reads with
// its own consumer group so that each one sees every envelope. Envelopes are
// keyed by room so a room's events stay ordered on one partition.
type KafkaBus struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
	group   string
	readers []*kafka.Reader
}

func NewKafkaBus(brokers []string, topic, processID string) *KafkaBus {
	return &KafkaBus{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchSize:    1,
		},
		brokers: brokers,
		topic:   topic,
		group:   "pictobattle-" + processID,
	}
}

func (b *KafkaBus) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	err = b.writer.WriteMessages(ctx, kafka.Message{Key: []byte(env.RoomID), Value: data})
	if err != nil {
		return fmt.Errorf("publish %s: %w", env.Kind, err)
	}
	return nil
}

func (b *KafkaBus) Subscribe(ctx context.Context, h Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		Topic:       b.topic,
		GroupID:     b.group,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1e6,
	})
	b.readers = append(b.readers, reader)

	go func() {
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Str("topic", b.topic).Msg("kafka read failed")
				return
			}
			var env Envelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				log.Warn().Err(err).Msg("dropping malformed envelope")
				continue
			}
			h(env)
		}
	}()
	return nil
}

func (b *KafkaBus) Close() error {
	var errs []error
	for _, r := range b.readers {
		errs = append(errs, r.Close())
	}
	errs = append(errs, b.writer.Close())
	return errors.Join(errs...)
}
