package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager keeps the latest presence of every client in a room.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]PresencePayload),
	}
}

// Update replaces a client's presence.
func (pm *PresenceManager) Update(clientID string, p PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.presences)
}

// Snapshot copies every presence except the excluded client's.
func (pm *PresenceManager) Snapshot(excludeClientID string) map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for id, p := range pm.presences {
		if id == excludeClientID {
			continue
		}
		result[id] = &p
	}
	return result
}

// StateMessage builds the presence.state sent to a joining client.
func (pm *PresenceManager) StateMessage(forClientID string) *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.Snapshot(forClientID)})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
