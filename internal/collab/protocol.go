package collab

import (
	"encoding/json"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/store"
)

type Message struct {
	Type     string          `json:"type"`
	StageID  string          `json:"stageId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// PresencePayload is one client's pointer, selection and rubber band in
// world coordinates.
type PresencePayload struct {
	Cursor       *geom.Point         `json:"cursor,omitempty"`
	Selection    []string            `json:"selection"`
	SelectionBox *store.SelectionBox `json:"selectionBox,omitempty"`
	DisplayName  string              `json:"displayName,omitempty"`
}

// PresenceStatePayload is keyed by client id.
type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	StageID  string `json:"stageId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"
)

// NewMessage builds a message with a JSON payload.
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}
