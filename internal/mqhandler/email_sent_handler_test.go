package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stylemail/internal/model"
	"stylemail/internal/mq"
	"stylemail/internal/service"
)

type fakeUpdater struct {
	calls int
	err   error
}

func (f *fakeUpdater) UpdateProfile(_ context.Context, connectionID, _ string) (*model.StyleProfile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.StyleProfile{ConnectionID: connectionID, NumMessages: 5}, nil
}

type fakeDeduper struct {
	duplicate bool
	released  int
}

func (f *fakeDeduper) AcquireOnce(_ context.Context, _ string, _ int64) bool { return !f.duplicate }
func (f *fakeDeduper) Release(_ context.Context, _ string, _ int64)          { f.released++ }

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(routingKey string, _ any) error {
	f.published = append(f.published, routingKey)
	return nil
}

func payload(t *testing.T) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(mq.EmailSentPayload{
		ConnectionID: "conn-1",
		EmailID:      42,
		Body:         "Hi team, see attached.",
	})
	require.NoError(t, err)
	return b
}

func TestHandleEmailSent_Success(t *testing.T) {
	updater := &fakeUpdater{}
	publisher := &fakePublisher{}
	h := NewEmailSentHandler(updater, &fakeDeduper{}, publisher, zap.NewNop())

	err := h.HandleEmailSent(context.Background(), payload(t))
	require.NoError(t, err)
	assert.Equal(t, 1, updater.calls)
	assert.Equal(t, []string{mq.RoutingKeyProfileUpdated}, publisher.published)
}

func TestHandleEmailSent_DuplicateIsSkipped(t *testing.T) {
	updater := &fakeUpdater{}
	h := NewEmailSentHandler(updater, &fakeDeduper{duplicate: true}, nil, zap.NewNop())

	err := h.HandleEmailSent(context.Background(), payload(t))
	require.NoError(t, err)
	assert.Equal(t, 0, updater.calls)
}

func TestHandleEmailSent_BadPayloadIsDropped(t *testing.T) {
	updater := &fakeUpdater{}
	h := NewEmailSentHandler(updater, &fakeDeduper{}, nil, zap.NewNop())

	err := h.HandleEmailSent(context.Background(), json.RawMessage(`{not json`))
	assert.NoError(t, err, "unparseable payload must be acked, not requeued")
	assert.Equal(t, 0, updater.calls)
}

func TestHandleEmailSent_TerminalFailureIsDroppedAndReleased(t *testing.T) {
	updater := &fakeUpdater{err: &service.ConflictError{ConnectionID: "conn-1", Err: service.ErrTxConflict}}
	deduper := &fakeDeduper{}
	h := NewEmailSentHandler(updater, deduper, nil, zap.NewNop())

	err := h.HandleEmailSent(context.Background(), payload(t))
	assert.NoError(t, err, "exhausted conflict retry is best-effort, ack and drop")
	assert.Equal(t, 1, deduper.released)
}

func TestHandleEmailSent_InfrastructureFailureIsRequeued(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Err: fmt.Errorf("connection refused")}
	updater := &fakeUpdater{err: fmt.Errorf("extractor call: %w", netErr)}
	deduper := &fakeDeduper{}
	h := NewEmailSentHandler(updater, deduper, nil, zap.NewNop())

	err := h.HandleEmailSent(context.Background(), payload(t))
	assert.Error(t, err, "transient infrastructure failure must be nacked for redelivery")
	assert.Equal(t, 1, deduper.released, "claim released so the redelivery can be processed")
}
