package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCapturesEvents(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Publish(context.Background(), "order.placed", map[string]int{"items": 2}))

	got := r.Events()
	require.Len(t, got, 1)
	assert.Equal(t, "order.placed", got[0].Key)
	assert.JSONEq(t, `{"items":2}`, string(got[0].Payload))

	got[0].Key = "mutated"
	assert.Equal(t, "order.placed", r.Events()[0].Key)
}

func TestRecorderRejectsUnencodable(t *testing.T) {
	r := NewRecorder()
	err := r.Publish(context.Background(), "bad", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, r.Events())
}

func TestRecorderKeepsMostRecent(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < MaxRecorded+5; i++ {
		require.NoError(t, r.Publish(context.Background(), fmt.Sprintf("k%d", i), i))
	}
	got := r.Events()
	require.Len(t, got, MaxRecorded)
	assert.Equal(t, "k5", got[0].Key)
	assert.Equal(t, fmt.Sprintf("k%d", MaxRecorded+4), got[len(got)-1].Key)
}
