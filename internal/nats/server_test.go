package nats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedServerWithStreamAndBucket(t *testing.T) {
	ctx := context.Background()

	ns, err := StartEmbeddedNATS(t.TempDir())
	require.NoError(t, err)

	nc, err := ConnectInProcess(ns)
	require.NoError(t, err)
	defer func() { require.NoError(t, Shutdown(nc, ns)) }()

	js, err := CreateJetStream(nc)
	require.NoError(t, err)

	stream, err := SetupStream(ctx, js)
	require.NoError(t, err)

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, streamName, info.Config.Name)
	require.Equal(t, []string{"linkwizard.events.>"}, info.Config.Subjects)

	// Setup is idempotent.
	_, err = SetupStream(ctx, js)
	require.NoError(t, err)

	kv, err := SetupProgressBucket(ctx, js)
	require.NoError(t, err)
	_, err = kv.Put(ctx, "linkwizard.progress", []byte("{}"))
	require.NoError(t, err)
}

func TestSubjects(t *testing.T) {
	require.Equal(t, "linkwizard.events.abc.>", SubjectForIdentity("abc"))
	require.Equal(t, "linkwizard.events.abc.points", SubjectForEvent("abc", EventTypePoints))
}

func TestShutdownNil(t *testing.T) {
	require.NoError(t, Shutdown(nil, nil))
}
