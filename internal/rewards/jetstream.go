package rewards

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/linkwizard/internal/logger"
	lwnats "github.com/mark3labs/linkwizard/internal/nats"
	"github.com/nats-io/nats.go/jetstream"
)

// Event is one entry of the append-only points log.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Identity  string    `json:"identity"`
	Type      string    `json:"type"`   // points
	Action    string    `json:"action"` // award
	ReasonKey string    `json:"reason_key"`
	Amount    int       `json:"amount"`
}

// JetStreamLedger stores awards as events on the linkwizard event stream.
// The reason key doubles as the JetStream message id, so retries inside the
// stream's duplicate window are dropped by the server, and Balance applies
// each reason key once for anything older.
type JetStreamLedger struct {
	js       jetstream.JetStream
	stream   jetstream.Stream
	identity string
}

// NewJetStreamLedger creates a ledger for one caller identity.
func NewJetStreamLedger(js jetstream.JetStream, stream jetstream.Stream, identity string) *JetStreamLedger {
	return &JetStreamLedger{js: js, stream: stream, identity: identity}
}

// Award publishes an award event.
func (l *JetStreamLedger) Award(ctx context.Context, amount int, reasonKey string) error {
	event := Event{
		Timestamp: time.Now(),
		Identity:  l.identity,
		Type:      lwnats.EventTypePoints,
		Action:    "award",
		ReasonKey: reasonKey,
		Amount:    amount,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal award: %w", err)
	}

	subject := lwnats.SubjectForEvent(l.identity, lwnats.EventTypePoints)
	ack, err := l.js.Publish(ctx, subject, data, jetstream.WithMsgID(reasonKey))
	if err != nil {
		return fmt.Errorf("failed to publish award: %w", err)
	}
	if ack.Duplicate {
		logger.Debug("Award %s already recorded (seq=%d)", reasonKey, ack.Sequence)
		return nil
	}
	logger.Debug("Award %s recorded: %d points (seq=%d)", reasonKey, amount, ack.Sequence)
	return nil
}

// Balance reduces every award event for this identity.
func (l *JetStreamLedger) Balance(ctx context.Context) (Balance, error) {
	consumer, err := l.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{lwnats.SubjectForIdentity(l.identity)},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return Balance{}, fmt.Errorf("failed to create consumer: %w", err)
	}

	var balance Balance
	seen := make(map[string]bool)
	const batchSize = 500
	malformed := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				malformed++
				continue
			}
			if event.Type != lwnats.EventTypePoints || event.Action != "award" {
				continue
			}
			balance.apply(Award{ReasonKey: event.ReasonKey, Amount: event.Amount, At: event.Timestamp}, seen)
		}
		if count < batchSize {
			break
		}
	}

	if malformed > 0 {
		logger.Warn("Skipped %d malformed ledger events", malformed)
	}
	return balance, nil
}
