package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	eng, err := parley.New(parley.WithStore(store))
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&buf)
	require.NoError(t, err)
	return resp, []byte(buf.String())
}

func decodeReply(t *testing.T, data []byte) parley.Reply {
	t.Helper()
	var reply parley.Reply
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServer_Info(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/info", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), parley.Version)
}

func TestServer_ConversationFlow(t *testing.T) {
	srv, store := newTestServer(t, WithIDGenerator(func() string { return "fixed-id" }))

	resp, body := do(t, http.MethodPost, srv.URL+"/conversations", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/conversations/fixed-id", resp.Header.Get("Location"))
	greeting := decodeReply(t, body)
	assert.Equal(t, "fixed-id", greeting.ConversationID)
	assert.Equal(t, domain.BranchGreeting, greeting.Branch)

	var reply parley.Reply
	for _, text := range []string{"About shopping", "buy", "Clothes"} {
		resp, body = do(t, http.MethodPost, srv.URL+"/conversations/fixed-id/messages", `{"text":"`+text+`"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		reply = decodeReply(t, body)
	}
	require.Len(t, reply.Activities, 1)
	assert.Equal(t, "The ans of buy Clothes: .... (done! finished the dialog)", reply.Activities[0].Text)

	state, err := store.Load(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, 4, state.Turns)
}

func TestServer_CreateWithExplicitID(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, srv.URL+"/conversations", `{"id":"mine"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "mine", decodeReply(t, body).ConversationID)
}

func TestServer_StartConversation(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, srv.URL+"/conversations/abc/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decodeReply(t, body)
	require.Len(t, reply.Activities, 1)
	assert.Equal(t, domain.ActivityOptions, reply.Activities[0].Type)
}

func TestServer_GetListDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/conversations", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"conversations":[]}`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/conversations/c1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/conversations/c1/messages", `{"text":"About shopping"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/conversations/c1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state domain.ConversationState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.True(t, state.DialogStack.IsActive(domain.DialogShopping))

	resp, body = do(t, http.MethodGet, srv.URL+"/conversations", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"conversations":["c1"]}`, string(body))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/conversations/c1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/conversations/c1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, WithMaxInput(8))

	resp, _ := do(t, http.MethodPost, srv.URL+"/conversations/c1/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, http.MethodPost, srv.URL+"/conversations/c1/messages", `{"text":"far too long for the limit"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "exceeds maximum")
}

func TestServer_UnknownActionIsUnprocessable(t *testing.T) {
	srv, store := newTestServer(t)

	seeded := domain.NewConversationState("c1")
	seeded.LastOptionList = domain.OptionList{
		DialogID: domain.DialogShopping,
		PromptID: domain.PromptItem,
		Slots:    domain.ShoppingSlots{Action: "rent"},
		Options:  []domain.Option{{Title: "Clothes", Payload: "Clothes"}},
	}
	require.NoError(t, store.Save(context.Background(), "c1", seeded))

	resp, _ := do(t, http.MethodPost, srv.URL+"/conversations/c1/messages", `{"text":"Clothes"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("parley_turns_total 1\n"))
	})))
	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "parley_turns_total")

	srvNoMetrics, _ := newTestServer(t)
	resp, _ = do(t, http.MethodGet, srvNoMetrics.URL+"/metrics", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := do(t, http.MethodOptions, srv.URL+"/conversations", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/conversations/c1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	_, _ = reader.ReadString('\n') // data: connected
	_, _ = reader.ReadString('\n') // blank

	r, _ := do(t, http.MethodPost, srv.URL+"/conversations/c1/messages", `{"text":"gibberish"}`)
	require.Equal(t, http.StatusOK, r.StatusCode)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: reply\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"branch":"reset"`)
}

func TestStreamManager_UnsubscribeIsIdempotent(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("c1")
	sm.Broadcast("c1", &parley.Reply{ConversationID: "c1"})

	msg := <-ch
	assert.Contains(t, msg, `"conversation_id":"c1"`)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	sm.Broadcast("c1", &parley.Reply{})
}

func TestStreamManager_DropsAreLoggedToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	sm := NewStreamManager(slog.New(slog.NewTextHandler(&buf, nil)))
	ch, cancel := sm.Subscribe("c1")
	defer cancel()

	// Nobody reads, so the buffered channel fills up.
	for i := 0; i <= cap(ch); i++ {
		sm.Broadcast("c1", &parley.Reply{ConversationID: "c1"})
	}

	assert.Len(t, ch, cap(ch))
	assert.Contains(t, buf.String(), "client buffer full")
	assert.Contains(t, buf.String(), "conversation_id=c1")
}
