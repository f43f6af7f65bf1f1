package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-dispatch/internal/general/contracts"
)

func TestMultiNotifierReachesEveryNotifier(t *testing.T) {
	boom := errors.New("broker down")
	failing := &recordingNotifier{err: boom}
	healthy := &recordingNotifier{}
	multi := NewMultiNotifier(failing, nil, healthy)
	require.Len(t, multi.Notifiers, 2)

	err := multi.NotifyDispatch(context.Background(), contracts.DispatchEventMessage{OrderID: "order-1"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, failing.messages(), 1)
	require.Len(t, healthy.messages(), 1)
	assert.Equal(t, "order-1", healthy.messages()[0].OrderID)
}

func TestMultiNotifierEmpty(t *testing.T) {
	assert.NoError(t, NewMultiNotifier().NotifyDispatch(context.Background(), contracts.DispatchEventMessage{}))
}
