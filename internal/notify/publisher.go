package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// StreamName is the JetStream stream holding outbound notifications.
const StreamName = "STAKE_LEDGER_EVENTS"

// Publisher forwards notification records to NATS for downstream
// consumers. Subjects follow the pattern stake.ledger.events.{kind}.
// Publishing is best-effort: the log in Postgres remains the source of
// truth, so a failed publish is logged and skipped.
type Publisher struct {
	js        jetstream.JetStream
	inputChan <-chan Record
	logger    zerolog.Logger
}

// wireRecord is the outbound JSON shape of a notification.
type wireRecord struct {
	Sequence  int64     `json:"sequence"`
	Kind      string    `json:"kind"`
	PoolID    int       `json:"pool_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPublisher(js jetstream.JetStream, inputChan <-chan Record, logger zerolog.Logger) *Publisher {
	return &Publisher{
		js:        js,
		inputChan: inputChan,
		logger:    logger,
	}
}

// Run drains the input channel until it closes or ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case rec, ok := <-p.inputChan:
			if !ok {
				return nil
			}
			if err := p.publish(ctx, rec); err != nil {
				p.logger.Warn().
					Int64("sequence", rec.Sequence).
					Str("kind", rec.Kind.String()).
					Err(err).
					Msg("outbound publish failed")
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, rec Record) error {
	data, err := json.Marshal(wireRecord{
		Sequence:  rec.Sequence,
		Kind:      rec.Kind.String(),
		PoolID:    int(rec.PoolID),
		UserID:    rec.UserID.String(),
		Amount:    rec.Amount,
		Timestamp: rec.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	subject := fmt.Sprintf("stake.ledger.events.%s", rec.Kind)
	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureStream creates or updates the outbound notification stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"stake.ledger.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	return nil
}
