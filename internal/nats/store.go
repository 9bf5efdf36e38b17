package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName     = "linkwizard_events"
	progressBucket = "linkwizard_progress"

	// EventTypePoints is the subject suffix for points-ledger events.
	EventTypePoints = "points"
)

// SubjectForIdentity returns the wildcard subject for every event of one caller.
// Example: "linkwizard.events.3f2a.>"
func SubjectForIdentity(identity string) string {
	return fmt.Sprintf("linkwizard.events.%s.>", identity)
}

// SubjectForEvent returns the subject for one event type of one caller.
// Example: "linkwizard.events.3f2a.points"
func SubjectForEvent(identity, eventType string) string {
	return fmt.Sprintf("linkwizard.events.%s.%s", identity, eventType)
}

// SetupStream creates or updates the event stream. Events are kept forever;
// the duplicate window lets publishers retry with the same message id.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       streamName,
		Subjects:   []string{"linkwizard.events.>"},
		Storage:    jetstream.FileStorage,
		Duplicates: 7 * 24 * time.Hour,
	})
}

// SetupProgressBucket creates or updates the key-value bucket that holds
// wizard progress.
func SetupProgressBucket(ctx context.Context, js jetstream.JetStream) (jetstream.KeyValue, error) {
	return js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      progressBucket,
		Description: "linkwizard wizard progress",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
}
