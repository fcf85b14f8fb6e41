package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/inamate/canvas/internal/collab"
	"github.com/inamate/canvas/internal/engine"
)

// Messages delivered to the bubbletea program by the presence link.
type (
	welcomeMsg struct{ clientID string }

	remotePresenceMsg struct {
		clientID    string
		displayName string
		presence    engine.Presence
	}

	remoteLeaveMsg struct{ clientID string }

	disconnectedMsg struct{ err error }
)

// presenceLink publishes the local presence to a stage room and feeds
// everyone else's back to the program.
type presenceLink struct {
	conn *websocket.Conn
	out  chan engine.Presence
}

func stageURL(server, stageID, token string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/stage/" + url.PathEscape(stageID)
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func dialPresence(ctx context.Context, server, stageID, token string) (*presenceLink, error) {
	target, err := stageURL(server, stageID, token)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &presenceLink{conn: conn, out: make(chan engine.Presence, 1)}, nil
}

// Publish queues p, replacing any update that has not been written yet.
func (l *presenceLink) Publish(p engine.Presence) {
	select {
	case l.out <- p:
		return
	default:
	}
	select {
	case <-l.out:
	default:
	}
	select {
	case l.out <- p:
	default:
	}
}

// Run pumps both directions until ctx ends or the connection fails.
func (l *presenceLink) Run(ctx context.Context, send func(tea.Msg)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.readLoop(ctx, send) })
	g.Go(func() error { return l.writeLoop(ctx) })
	err := g.Wait()
	l.conn.Close(websocket.StatusNormalClosure, "")
	return err
}

func (l *presenceLink) readLoop(ctx context.Context, send func(tea.Msg)) error {
	for {
		_, data, err := l.conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read presence: %w", err)
		}

		var msg collab.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err)
			continue
		}
		for _, m := range translate(&msg) {
			send(m)
		}
	}
}

func (l *presenceLink) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-l.out:
			msg, err := collab.NewMessage(collab.TypePresenceUpdate, collab.PresencePayload{
				Cursor:       p.Cursor,
				Selection:    p.Selection,
				SelectionBox: p.SelectionBox,
			})
			if err != nil {
				return err
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if err := l.conn.Write(ctx, websocket.MessageText, data); err != nil {
				return fmt.Errorf("write presence: %w", err)
			}
		}
	}
}

// translate turns a hub message into program messages.
func translate(msg *collab.Message) []tea.Msg {
	switch msg.Type {
	case collab.TypeWelcome:
		var p collab.WelcomePayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return []tea.Msg{welcomeMsg{clientID: p.ClientID}}
		}
	case collab.TypePresenceState:
		var p collab.PresenceStatePayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return nil
		}
		var out []tea.Msg
		for clientID, presence := range p.Presences {
			if presence != nil {
				out = append(out, remote(clientID, *presence))
			}
		}
		return out
	case collab.TypePresenceUpdate:
		var p collab.PresencePayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return []tea.Msg{remote(msg.ClientID, p)}
		}
	case collab.TypePresenceLeave:
		var p collab.PresenceLeavePayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return []tea.Msg{remoteLeaveMsg{clientID: p.ClientID}}
		}
	}
	return nil
}

func remote(clientID string, p collab.PresencePayload) remotePresenceMsg {
	return remotePresenceMsg{
		clientID:    clientID,
		displayName: p.DisplayName,
		presence: engine.Presence{
			Cursor:       p.Cursor,
			Selection:    p.Selection,
			SelectionBox: p.SelectionBox,
		},
	}
}
