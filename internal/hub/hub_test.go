package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/mock"
	"github.com/MKhiriev/go-sync-cache/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHub_OnAfterConfigureSubscribesImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	h := New(0, logger.Nop())
	require.NoError(t, h.Configure(tr))

	removed := false
	tr.EXPECT().On("device", gomock.Any()).Return(func() { removed = true })

	sub, err := h.On("device", func(json.RawMessage) {})
	require.NoError(t, err)
	assert.Equal(t, "device", sub.Event())
	assert.Zero(t, h.Pending())

	sub.Unsubscribe()
	assert.True(t, removed)
}

func TestHub_ReplaysQueuedSubscriptionsInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	h := New(0, logger.Nop())

	var got []string
	for _, name := range []string{"device", "devices", "user"} {
		_, err := h.On(name, func(json.RawMessage) {})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, h.Pending())
	assert.False(t, h.Configured())

	tr.EXPECT().On(gomock.Any(), gomock.Any()).
		DoAndReturn(func(event string, _ transport.Handler) func() {
			got = append(got, event)
			return func() {}
		}).Times(3)

	require.NoError(t, h.Configure(tr))
	assert.True(t, h.Configured())
	assert.Zero(t, h.Pending())
	assert.Equal(t, []string{"device", "devices", "user"}, got)
}

func TestHub_ReplayDeliversToOriginalHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	h := New(0, logger.Nop())

	var delivered json.RawMessage
	_, err := h.On("device", func(data json.RawMessage) { delivered = data })
	require.NoError(t, err)

	tr.EXPECT().On("device", gomock.Any()).
		DoAndReturn(func(_ string, handler transport.Handler) func() {
			handler(json.RawMessage(`{"id":"1"}`))
			return func() {}
		})

	require.NoError(t, h.Configure(tr))
	assert.JSONEq(t, `{"id":"1"}`, string(delivered))
}

func TestHub_UnsubscribeQueued(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	h := New(0, logger.Nop())

	first, err := h.On("device", func(json.RawMessage) {})
	require.NoError(t, err)
	_, err = h.On("devices", func(json.RawMessage) {})
	require.NoError(t, err)

	first.Unsubscribe()
	first.Unsubscribe()
	assert.Equal(t, 1, h.Pending())

	tr.EXPECT().On("devices", gomock.Any()).Return(func() {})
	require.NoError(t, h.Configure(tr))
}

func TestHub_UnsubscribeActiveOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	h := New(0, logger.Nop())

	sub, err := h.On("device", func(json.RawMessage) {})
	require.NoError(t, err)

	calls := 0
	tr.EXPECT().On("device", gomock.Any()).Return(func() { calls++ })
	require.NoError(t, h.Configure(tr))

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 1, calls)
}

func TestHub_PendingQueueCap(t *testing.T) {
	h := New(2, logger.Nop())
	assert.Equal(t, 2, h.MaxPending())

	for range 2 {
		_, err := h.On("device", func(json.RawMessage) {})
		require.NoError(t, err)
	}

	sub, err := h.On("device", func(json.RawMessage) {})
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ErrPendingQueueFull)
}

func TestHub_DefaultMaxPending(t *testing.T) {
	assert.Equal(t, DefaultMaxPending, New(0, logger.Nop()).MaxPending())
	assert.Equal(t, DefaultMaxPending, New(-1, logger.Nop()).MaxPending())
}

func TestHub_ConfigureTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := New(0, logger.Nop())

	require.NoError(t, h.Configure(mock.NewMockTransport(ctrl)))
	assert.ErrorIs(t, h.Configure(mock.NewMockTransport(ctrl)), ErrAlreadyConfigured)
}

func TestHub_ConfigureNil(t *testing.T) {
	assert.ErrorIs(t, New(0, logger.Nop()).Configure(nil), ErrNilTransport)
}

func TestHub_EmitBeforeConfigure(t *testing.T) {
	err := New(0, logger.Nop()).Emit(context.Background(), "device", nil, nil)
	assert.ErrorIs(t, err, ErrTransportNotConfigured)
}

func TestHub_EmitDelegates(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mock.NewMockTransport(ctrl)
	h := New(0, logger.Nop())
	require.NoError(t, h.Configure(tr))

	ctx := context.Background()
	payload := map[string]any{"id": "1"}
	tr.EXPECT().Emit(ctx, "device", payload, gomock.Nil()).Return(nil)

	assert.NoError(t, h.Emit(ctx, "device", payload, nil))
}
