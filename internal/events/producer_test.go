package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_KeyedByUser(t *testing.T) {
	t.Parallel()

	e := New(TypeUserSignedIn, 42, "alice")
	e.Provider = "google"

	msg, err := Message(e)
	require.NoError(t, err)

	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, TypeUserSignedIn, string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, TypeUserSignedIn, body["type"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "google", body["provider"])
	assert.EqualValues(t, 42, body["userId"])
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(TypeUserRegistered, 1, "bob")))
	assert.NoError(t, p.Close())
}
