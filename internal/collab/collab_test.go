package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/inamate/canvas/internal/auth"
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/typeid"
)

func recv(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func TestHub_JoinUpdateLeave(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := NewClient(hub, nil, "user_a", "Ada", "stage_1", "client_a")
	b := NewClient(hub, nil, "user_b", "Bob", "stage_1", "client_b")
	other := NewClient(hub, nil, "user_c", "Cy", "stage_2", "client_c")

	require.True(t, hub.Register(a))
	assert.Equal(t, TypePresenceState, recv(t, a).Type)

	require.True(t, hub.Register(b))
	assert.Equal(t, TypePresenceState, recv(t, b).Type)
	join := recv(t, a)
	assert.Equal(t, TypePresenceJoin, join.Type)
	assert.Equal(t, "client_b", join.ClientID)

	require.True(t, hub.Register(other))
	recv(t, other)

	payload, _ := json.Marshal(PresencePayload{Cursor: &geom.Point{X: 1, Y: 2}, Selection: []string{"el_1"}})
	hub.handleMessage(b, &Message{Type: TypePresenceUpdate, Payload: payload})

	update := recv(t, a)
	assert.Equal(t, TypePresenceUpdate, update.Type)
	assert.Equal(t, "client_b", update.ClientID)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(update.Payload, &p))
	assert.Equal(t, &geom.Point{X: 1, Y: 2}, p.Cursor)
	assert.Equal(t, "Bob", p.DisplayName, "display name comes from the connection")

	assert.Empty(t, b.send, "sender does not get its own update")
	assert.Empty(t, other.send, "other stages are isolated")

	hub.Unregister(b)
	leave := recv(t, a)
	assert.Equal(t, TypePresenceLeave, leave.Type)
	assert.Equal(t, "client_b", leave.ClientID)
	assert.Equal(t, 1, hub.ClientCount("stage_1"))
}

func TestHub_StateOnJoin(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := NewClient(hub, nil, "user_a", "Ada", "stage_1", "client_a")
	hub.Register(a)
	recv(t, a)

	payload, _ := json.Marshal(PresencePayload{Selection: []string{"el_9"}})
	hub.handleMessage(a, &Message{Type: TypePresenceUpdate, Payload: payload})

	b := NewClient(hub, nil, "user_b", "Bob", "stage_1", "client_b")
	hub.Register(b)
	state := recv(t, b)
	require.Equal(t, TypePresenceState, state.Type)

	var st PresenceStatePayload
	require.NoError(t, json.Unmarshal(state.Payload, &st))
	require.Contains(t, st.Presences, "client_a")
	assert.Equal(t, []string{"el_9"}, st.Presences["client_a"].Selection)
	assert.NotContains(t, st.Presences, "client_b")
}

func TestHub_InvalidMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := NewClient(hub, nil, "user_a", "Ada", "stage_1", "client_a")
	hub.Register(a)
	recv(t, a)

	hub.handleMessage(a, &Message{Type: "doc.sync", Payload: json.RawMessage(`{}`)})
	assert.Equal(t, TypeError, recv(t, a).Type)

	hub.handleMessage(a, &Message{Type: TypePresenceUpdate, Payload: json.RawMessage(`"nope"`)})
	assert.Equal(t, TypeError, recv(t, a).Type)
}

func TestHub_StopClosesClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub()
	go hub.Run()

	a := NewClient(hub, nil, "user_a", "Ada", "stage_1", "client_a")
	hub.Register(a)
	recv(t, a)

	hub.Stop()
	_, ok := <-a.send
	assert.False(t, ok)

	// Nothing blocks or panics after shutdown.
	assert.False(t, hub.Register(NewClient(hub, nil, "u", "U", "stage_1", "c")))
	hub.Unregister(a)
	a.Send(&Message{Type: TypePresenceUpdate})
	hub.Stop()
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) *Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestHandler_RelaysOverWebsocket(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	authSvc := auth.NewService("secret")
	r := mux.NewRouter()
	r.HandleFunc("/ws/stage/{stageId}", NewHandler(hub, authSvc, nil).ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	a := dial(t, ctx, base+"/ws/stage/"+PlaygroundStageID)
	welcome := read(t, ctx, a)
	require.Equal(t, TypeWelcome, welcome.Type)
	assert.Equal(t, TypePresenceState, read(t, ctx, a).Type)

	guest, err := authSvc.Guest("Bob")
	require.NoError(t, err)
	b := dial(t, ctx, base+"/ws/stage/"+PlaygroundStageID+"?token="+guest.Token)
	read(t, ctx, b) // welcome
	read(t, ctx, b) // state

	join := read(t, ctx, a)
	require.Equal(t, TypePresenceJoin, join.Type)
	assert.Equal(t, guest.User.ID, join.UserID)

	update, err := NewMessage(TypePresenceUpdate, PresencePayload{Cursor: &geom.Point{X: 5, Y: 6}})
	require.NoError(t, err)
	data, _ := json.Marshal(update)
	require.NoError(t, b.Write(ctx, websocket.MessageText, data))

	got := read(t, ctx, a)
	require.Equal(t, TypePresenceUpdate, got.Type)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(got.Payload, &p))
	assert.Equal(t, "Bob", p.DisplayName)
	assert.Equal(t, &geom.Point{X: 5, Y: 6}, p.Cursor)

	b.Close(websocket.StatusNormalClosure, "")
	assert.Equal(t, TypePresenceLeave, read(t, ctx, a).Type)
}

func TestHandler_RequiresToken(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	r := mux.NewRouter()
	r.HandleFunc("/ws/stage/{stageId}", NewHandler(hub, auth.NewService("secret"), nil).ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	stageID := typeid.NewStageID()
	for _, query := range []string{"", "?token=bad"} {
		resp, err := http.Get(srv.URL + "/ws/stage/" + stageID + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/ws/stage/not_a_stage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_CreateStage(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.CreateStage(rec, httptest.NewRequest(http.MethodPost, "/api/stages", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NoError(t, typeid.Validate(body["stageId"], typeid.PrefixStage))
}

func TestClient_PresenceRateLimit(t *testing.T) {
	c := NewClient(nil, nil, "user_a", "Ada", "stage_1", "client_a")

	update := &Message{Type: TypePresenceUpdate}
	allowed := 0
	for range presenceBurst * 3 {
		if c.allow(update) {
			allowed++
		}
	}
	// The burst passes at once; the rest of a tight loop is dropped.
	assert.GreaterOrEqual(t, allowed, presenceBurst)
	assert.Less(t, allowed, presenceBurst*3)

	assert.True(t, c.allow(&Message{Type: "anything.else"}))
}
