package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a scripted Telegram bot API endpoint.
func fakeAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token")
	c.apiBase = srv.URL
	c.http.Timeout = 2 * time.Second
	return c
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	c := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok": true, "result": {}}`))
	})

	require.NoError(t, c.SendMessage(context.Background(), "12345", "<b>lamp red</b>"))
	assert.Equal(t, "12345", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendMessageRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	c := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	})

	err := c.SendMessage(context.Background(), "12345", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, int32(sendAttempts), calls.Load())
}

func TestBroadcastCollectsErrors(t *testing.T) {
	c := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["chat_id"] == "bad" {
			w.Write([]byte(`{"ok": false, "description": "blocked"}`))
			return
		}
		w.Write([]byte(`{"ok": true, "result": {}}`))
	})

	err := c.Broadcast(context.Background(), []string{"good", "bad"}, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat bad")
}

func TestGetUpdates(t *testing.T) {
	c := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getUpdates", r.URL.Path)
		w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 7, "message": {"message_id": 1, "chat": {"id": 99}, "text": "/status"}}
		]}`))
	})

	updates, err := c.GetUpdates(context.Background(), 0, time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(7), updates[0].UpdateID)
	assert.Equal(t, int64(99), updates[0].Message.Chat.ID)
	assert.Equal(t, "/status", updates[0].Message.Text)
}

func TestBotDispatch(t *testing.T) {
	replies := make(chan string, 1)
	c := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bottest-token/sendMessage" {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"].(string)
		}
		w.Write([]byte(`{"ok": true, "result": {}}`))
	})

	bot := NewBot(c, []string{"99"})
	bot.Handle("/status", func(args string) string { return "lamp green" })

	bot.dispatch(context.Background(), Update{
		UpdateID: 1,
		Message:  &Message{Chat: Chat{ID: 99}, Text: "/status@disco_bot"},
	})
	select {
	case reply := <-replies:
		assert.Equal(t, "lamp green", reply)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply sent")
	}

	// Commands from unknown chats are ignored.
	bot.dispatch(context.Background(), Update{
		UpdateID: 2,
		Message:  &Message{Chat: Chat{ID: 1}, Text: "/status"},
	})
	select {
	case reply := <-replies:
		t.Fatalf("unexpected reply %q", reply)
	case <-time.After(100 * time.Millisecond):
	}
}
