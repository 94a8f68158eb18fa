package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"infra-assistant-be/internal/constant"
	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/websocket"
	"infra-assistant-be/pkg/chunker"
	"infra-assistant-be/pkg/events"
	"infra-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diagnosis = "The container failed its health check. The database port is not reachable. Restart it once the port is open again now."

func subscribe(t *testing.T, env *testEnv, identity string, sessionId uint) *recordingTransport {
	t.Helper()
	transport := &recordingTransport{}
	env.registry.Connect(identity, transport)
	_, err := env.registry.Subscribe(identity, sessionId)
	require.NoError(t, err)
	return transport
}

func TestSendChat_StreamsReplyToSubscribers(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: diagnosis, Suggestions: []string{"Show container logs"}}, nil)
	ctx := t.Context()

	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultSessionTitle, session.Title)

	alice := subscribe(t, env, "alice", session.Id)
	bob := subscribe(t, env, "bob", session.Id)

	res, err := env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Chat:          "Why is my container unhealthy?",
		Context:       map[string]interface{}{"page_id": "containers"},
	})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, constant.ChatMessageRoleAssistant, res.Reply.Role)
	assert.Equal(t, diagnosis, res.Reply.Chat)
	assert.Equal(t, []string{"Show container logs"}, res.Reply.Suggestions)

	expected := chunker.Split(diagnosis, 50)
	require.GreaterOrEqual(t, len(expected), 2)
	assert.Equal(t, len(expected), res.Chunks)

	for _, rec := range []*recordingTransport{alice, bob} {
		chunks := rec.ofType(websocket.EventMessageChunk)
		require.Len(t, chunks, len(expected))
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			assert.Equal(t, i, *c.ChunkIndex)
			assert.Equal(t, len(expected), *c.TotalChunks)
			assert.Equal(t, i == 0, *c.IsFirst)
			assert.Equal(t, i == len(chunks)-1, *c.IsLast)
			assert.Equal(t, res.Reply.Id, c.MessageId)
			assert.LessOrEqual(t, len(*c.Chunk), 50)
			texts[i] = *c.Chunk
		}
		assert.Equal(t, diagnosis, strings.Join(texts, " "))

		messages := rec.ofType(websocket.EventChatMessage)
		require.Len(t, messages, 2)
		assert.Equal(t, res.Sent.Id, messages[0].Message.(*dto.ChatMessageResponse).Id)
		assert.Equal(t, res.Reply.Id, messages[1].Message.(*dto.ChatMessageResponse).Id)
	}

	// typing on then off for the assistant
	require.Eventually(t, func() bool { return len(alice.ofType(websocket.EventTypingStatus)) == 2 }, time.Second, 10*time.Millisecond)
	conn, ok := env.registry.Connection("alice")
	require.True(t, ok)
	assert.False(t, conn.IsTyping())

	// responder saw the intent and the topics of the question
	assert.Equal(t, "Why is my container unhealthy?", env.responder.last.Message)
	assert.Contains(t, env.responder.last.Topics, "container")

	// session picks up the first message as its title
	got, err := env.chat.GetSession(ctx, "alice", session.Id)
	require.NoError(t, err)
	assert.Equal(t, "Why is my container unhealthy?", got.Title)

	history, err := env.chat.GetHistory(ctx, "alice", session.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, history[0].Role)

	require.Len(t, env.capture.payloads, 1)
	var captured dto.MemoryCaptureMessage
	require.NoError(t, json.Unmarshal(env.capture.payloads[0], &captured))
	assert.Equal(t, res.Reply.Id, captured.MessageId)
	assert.Equal(t, session.Id, captured.SessionId)
	assert.Equal(t, "alice", captured.UserId)
	assert.Contains(t, captured.Content, "Why is my container unhealthy?")
	assert.Contains(t, captured.Content, diagnosis)
	assert.Equal(t, "containers", captured.Context["page_id"])

	require.Len(t, env.events.events, 1)
	assert.Equal(t, events.ChatMessageCreated, env.events.events[0].EventType())
}

func TestSendChat_ResponderFailureSendsFallback(t *testing.T) {
	env := newTestEnv(nil, errors.New("model timed out after 30s"))
	ctx := t.Context()

	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{Title: "ops"})
	require.NoError(t, err)
	alice := subscribe(t, env, "alice", session.Id)

	res, err := env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: "restart nginx"})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, constant.ChatMessageRoleSystem, res.Reply.Role)
	assert.Equal(t, constant.ChatFallbackMessage, res.Reply.Chat)
	assert.Equal(t, llm.FallbackSuggestions, res.Reply.Suggestions)
	assert.Zero(t, res.Chunks)

	assert.Empty(t, alice.ofType(websocket.EventMessageChunk))
	messages := alice.ofType(websocket.EventChatMessage)
	require.Len(t, messages, 2)
	reply := messages[1].Message.(*dto.ChatMessageResponse)
	assert.NotContains(t, reply.Chat, "timed out")

	// fallback replies are not remembered
	assert.Empty(t, env.capture.payloads)
}

func TestSendChat_AutoSuggestionsOff(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: "Done.", Suggestions: []string{"x"}}, nil)
	ctx := t.Context()
	off := false
	_, err := env.prefs.UpdatePreferences(ctx, "alice", &dto.UpdatePreferenceRequest{AutoSuggestions: &off})
	require.NoError(t, err)

	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	res, err := env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: "stop the container"})
	require.NoError(t, err)
	assert.Empty(t, res.Reply.Suggestions)
	assert.Equal(t, 1, res.Chunks)
}

func TestSendChat_Errors(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: "ok"}, nil)
	ctx := t.Context()
	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)

	_, err = env.chat.SendChat(ctx, "mallory", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: "hi"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: "   "})
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	env.store.FailWith = errors.New("db down")
	_, err = env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: "hi"})
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: "ok"}, nil)
	ctx := t.Context()

	first, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{Title: "  first  "})
	require.NoError(t, err)
	assert.Equal(t, "first", first.Title)
	_, err = env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{Title: "second"})
	require.NoError(t, err)
	_, err = env.chat.CreateSession(ctx, "bob", &dto.CreateSessionRequest{})
	require.NoError(t, err)

	sessions, err := env.chat.ListSessions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	_, err = env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: first.Id, Chat: "hello"})
	require.NoError(t, err)

	assert.True(t, apperror.Is(env.chat.DeleteSession(ctx, "bob", first.Id), apperror.KindNotFound))
	require.NoError(t, env.chat.DeleteSession(ctx, "alice", first.Id))

	_, err = env.chat.GetHistory(ctx, "alice", first.Id)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	sessions, err = env.chat.ListSessions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSubmitFeedback_LearnsFromReply(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: "Your container ran out of memory."}, nil)
	ctx := t.Context()
	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	res, err := env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: "what happened?"})
	require.NoError(t, err)

	result, err := env.chat.SubmitFeedback(ctx, "alice", &dto.FeedbackRequest{MessageId: res.Reply.Id, Rating: 5})
	require.NoError(t, err)
	assert.True(t, result.Learned)

	pref, err := env.prefs.GetPreferences(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, pref.PreferredTopics, "container")

	// a rating from another user shapes only that user's preferences
	result, err = env.chat.SubmitFeedback(ctx, "bob", &dto.FeedbackRequest{MessageId: res.Reply.Id, Rating: 5})
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	assert.True(t, result.Learned)

	bobPref, err := env.prefs.GetPreferences(ctx, "bob")
	require.NoError(t, err)
	assert.Contains(t, bobPref.PreferredTopics, "container")
	alicePref, err := env.prefs.GetPreferences(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alicePref.PositiveCount)
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: "ok"}, nil)
	ctx := t.Context()
	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	alice := subscribe(t, env, "alice", session.Id)
	other := subscribe(t, env, "support", session.Id)

	require.NoError(t, env.chat.MarkRead(ctx, "alice", session.Id, &dto.ReadReceiptRequest{MessageId: 7}))
	assert.Empty(t, alice.ofType(websocket.EventReadReceipt))
	receipts := other.ofType(websocket.EventReadReceipt)
	require.Len(t, receipts, 1)
	assert.Equal(t, uint(7), receipts[0].MessageId)
	assert.Equal(t, "alice", receipts[0].UserId)
}

func TestSendChat_TruncatesLongTitle(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: "Checking."}, nil)
	ctx := t.Context()

	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)

	question := strings.Repeat("é", 70)
	_, err = env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: question})
	require.NoError(t, err)

	got, err := env.chat.GetSession(ctx, "alice", session.Id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", constant.SessionTitleMaxLen)+"...", got.Title)
}

func TestDeleteSession_StopsStreamInFlight(t *testing.T) {
	env := newTestEnvWithDelay(&llm.Reply{Text: diagnosis}, nil, 100*time.Millisecond)
	ctx := t.Context()

	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	alice := subscribe(t, env, "alice", session.Id)
	require.Greater(t, len(chunker.Split(diagnosis, 50)), 1)

	errs := make(chan error, 1)
	go func() {
		_, err := env.chat.SendChat(ctx, "alice", &dto.SendChatRequest{ChatSessionId: session.Id, Chat: "why did it fail?"})
		errs <- err
	}()

	require.Eventually(t, func() bool { return len(alice.ofType(websocket.EventMessageChunk)) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, env.chat.DeleteSession(ctx, "alice", session.Id))

	select {
	case err := <-errs:
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	case <-time.After(2 * time.Second):
		t.Fatal("SendChat did not return after the session was deleted")
	}

	// wait past the next chunk tick
	time.Sleep(250 * time.Millisecond)
	assert.Len(t, alice.ofType(websocket.EventMessageChunk), 1)
	assert.Len(t, alice.ofType(websocket.EventChatMessage), 1)
	assert.Empty(t, env.capture.payloads)
	assert.Empty(t, env.events.events)
	assert.Empty(t, env.registry.SubscribersOf(session.Id))
	assert.Empty(t, env.registry.SessionsOf("alice"))
	_, connected := env.registry.Connection("alice")
	assert.True(t, connected)
}

func TestDeleteSession_DropsSubscribers(t *testing.T) {
	env := newTestEnv(&llm.Reply{Text: "ok"}, nil)
	ctx := t.Context()

	session, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	other, err := env.chat.CreateSession(ctx, "alice", &dto.CreateSessionRequest{})
	require.NoError(t, err)
	subscribe(t, env, "alice", session.Id)
	_, err = env.registry.Subscribe("alice", other.Id)
	require.NoError(t, err)

	require.NoError(t, env.chat.DeleteSession(ctx, "alice", session.Id))
	assert.Empty(t, env.registry.SubscribersOf(session.Id))
	assert.Equal(t, []uint{other.Id}, env.registry.SessionsOf("alice"))
}
