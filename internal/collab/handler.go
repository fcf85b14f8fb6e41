package collab

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/canvas/internal/auth"
	"github.com/inamate/canvas/internal/typeid"
)

// PlaygroundStageID is open to anonymous viewers.
const PlaygroundStageID = "stage_playground"

// TokenValidator resolves a viewer token.
type TokenValidator interface {
	ValidateToken(token string) (*auth.User, error)
}

// Handler upgrades /ws/stage/{stageId} requests and attaches them to the
// hub.
type Handler struct {
	hub            *Hub
	tokens         TokenValidator
	originPatterns []string
}

func NewHandler(hub *Hub, tokens TokenValidator, originPatterns []string) *Handler {
	return &Handler{hub: hub, tokens: tokens, originPatterns: originPatterns}
}

// CreateStage mints a stage id that viewers with a token can join.
func (h *Handler) CreateStage(w http.ResponseWriter, r *http.Request) {
	stageID := typeid.NewStageID()
	user, _ := auth.UserFromContext(r.Context())
	if user != nil {
		slog.Info("stage created", "stage", stageID, "user", user.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"stageId": stageID})
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	stageID := mux.Vars(r)["stageId"]
	if stageID == "" {
		http.Error(w, "missing stage id", http.StatusBadRequest)
		return
	}
	if stageID != PlaygroundStageID {
		if err := typeid.Validate(stageID, typeid.PrefixStage); err != nil {
			http.Error(w, "invalid stage id", http.StatusBadRequest)
			return
		}
	}

	var userID, displayName string

	token := r.URL.Query().Get("token")
	switch {
	case token != "":
		user, err := h.tokens.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, displayName = user.ID, user.DisplayName

	case stageID == PlaygroundStageID:
		// Anonymous user for playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"

	default:
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, userID, displayName, stageID, clientID)

	if welcome, err := NewMessage(TypeWelcome, WelcomePayload{ClientID: clientID, StageID: stageID}); err == nil {
		client.Send(welcome)
	}

	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
