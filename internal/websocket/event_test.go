package websocket

import (
	"encoding/json"
	"testing"

	"infra-assistant-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEvent_WireNames(t *testing.T) {
	raw, err := json.Marshal(NewChunkEvent(4, 8, "hello", 0, 2))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "message_chunk", fields["type"])
	assert.Equal(t, float64(4), fields["session_id"])
	assert.Equal(t, float64(8), fields["message_id"])
	assert.Equal(t, "hello", fields["chunk"])
	assert.Equal(t, true, fields["is_first"])
	assert.Equal(t, false, fields["is_last"], "false flags are still sent")
	assert.Equal(t, float64(0), fields["chunk_index"], "index zero is still sent")
	assert.Equal(t, float64(2), fields["total_chunks"])
	assert.Contains(t, fields, "timestamp")
	assert.NotContains(t, fields, "error")
}

func TestParseClientFrame(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"subscribe", `{"type":"subscribe","session_id":3}`, FrameSubscribe, false},
		{"unsubscribe", `{"type":"unsubscribe","session_id":3}`, FrameUnsubscribe, false},
		{"typing false", `{"type":"typing","is_typing":false,"session_id":3}`, FrameTyping, false},
		{"read receipt", `{"type":"read_receipt","message_id":9,"session_id":3}`, FrameReadReceipt, false},
		{"ping", `{"type":"ping"}`, FramePing, false},
		{"not json", `hello`, "", true},
		{"unknown type", `{"type":"shout"}`, "", true},
		{"subscribe without session", `{"type":"subscribe"}`, "", true},
		{"typing without flag", `{"type":"typing","session_id":3}`, "", true},
		{"receipt without message", `{"type":"read_receipt","session_id":3}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseClientFrame([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
				assert.NotEmpty(t, apperror.MessageOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, frame.Type)
		})
	}
}

func TestSession_HandleFrame(t *testing.T) {
	d, reg := newTestDispatcher(t, 0)
	s := NewSession(d, d.logger)
	transport := &fakeTransport{}
	conn := reg.Connect("alice", transport)

	s.HandleFrame(conn, []byte(`{"type":"subscribe","session_id":2}`))
	assert.Equal(t, []string{"alice"}, reg.SubscribersOf(2))

	s.HandleFrame(conn, []byte(`garbage`))
	s.HandleFrame(conn, []byte(`{"type":"ping"}`))
	s.HandleFrame(conn, []byte(`{"type":"unsubscribe","session_id":2}`))

	assert.Empty(t, reg.SubscribersOf(2))
	types := make([]EventType, 0)
	for _, e := range transport.received() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventSubscriptionConfirmed, EventError, EventPong, EventUnsubscriptionConfirmed}, types)

	_, stillConnected := reg.Connection("alice")
	assert.True(t, stillConnected, "malformed frames keep the connection open")
}
