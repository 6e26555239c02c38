package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/cuongbtq/jobboard/shared/rabbitmq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	msgs []rabbitmq.Message
	err  error
}

func (f *fakeClient) Publish(ctx context.Context, msg rabbitmq.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestRabbitPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	p := NewRabbitPublisher(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ev := NewJobEvent("job-1", TypeJobStatusChanged, SourceManual, map[string]string{"status": "closed"})
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, client.msgs, 1)
	msg := client.msgs[0]
	assert.Equal(t, "job.status_changed", msg.RoutingKey)
	assert.Equal(t, ev.EventID, msg.MessageID)
	assert.Equal(t, "application/json", msg.ContentType)

	var decoded JobEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, ev.JobID, decoded.JobID)
	assert.Equal(t, TypeJobStatusChanged, decoded.Type)
	assert.Equal(t, "closed", decoded.Details["status"])
	assert.True(t, ev.OccurredAt.Equal(decoded.OccurredAt))
}

func TestRabbitPublisher_PublishError(t *testing.T) {
	p := NewRabbitPublisher(&fakeClient{err: errors.New("channel closed")}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := p.Publish(context.Background(), NewJobEvent("job-1", TypeJobCreated, SourceUpload, nil))
	assert.ErrorContains(t, err, "channel closed")
}

func TestType_Valid(t *testing.T) {
	assert.True(t, TypeJobDeleted.Valid())
	assert.False(t, Type("job.archived").Valid())
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), JobEvent{}))
}
