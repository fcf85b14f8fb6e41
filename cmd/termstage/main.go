// Command termstage drives a stage from the terminal. The mouse maps to
// stage pixels one cell at a time; with --server the local pointer and
// selection are shared with everyone on the same stage.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/inamate/canvas/internal/collab"
	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/layout"
	"github.com/inamate/canvas/internal/store"
)

type options struct {
	server   string
	stageID  string
	token    string
	name     string
	document string
	logFile  string
	gap      float64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "termstage",
		Short:        "Pan, zoom, select and arrange a stage in the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "Collaboration server URL, e.g. http://localhost:8080")
	cmd.Flags().StringVar(&opts.stageID, "stage", collab.PlaygroundStageID, "Stage to join")
	cmd.Flags().StringVar(&opts.token, "token", "", "Viewer token; a guest token is requested when unset")
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name for the guest token")
	cmd.Flags().StringVarP(&opts.document, "document", "d", "", "Stage document JSON file (default: built-in sample)")
	cmd.Flags().StringVar(&opts.logFile, "log", "", "Write logs to this file")
	cmd.Flags().Float64Var(&opts.gap, "gap", 40, "Gap between elements for auto layout")

	return cmd
}

func run(ctx context.Context, opts options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger, closeLog, err := newLogger(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	// Sequential ids let every terminal on a stage agree on element ids
	// for the same document, so remote selections resolve.
	eng := engine.NewEngine(
		engine.WithLogger(logger),
		engine.WithStore(store.New(store.WithIDGenerator(sequentialIDs("el_")))),
	)
	defer eng.Close()

	if opts.document != "" {
		data, err := os.ReadFile(opts.document)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		if err := eng.LoadDocument(string(data)); err != nil {
			return err
		}
	} else {
		eng.LoadSampleDocument()
	}

	var link *presenceLink
	if opts.server != "" {
		token := opts.token
		if token == "" && opts.stageID != collab.PlaygroundStageID {
			if token, err = guestToken(ctx, opts.server, opts.name); err != nil {
				return err
			}
		}
		dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
		link, err = dialPresence(dialCtx, opts.server, opts.stageID, token)
		dialCancel()
		if err != nil {
			return err
		}
	}

	m := newModel(eng, layout.NewGridSolver(opts.gap, 1200), link)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if link != nil {
		go func() {
			err := link.Run(ctx, p.Send)
			if ctx.Err() == nil {
				p.Send(disconnectedMsg{err: err})
			}
		}()
	}

	_, err = p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// guestToken asks the server for a guest token.
func guestToken(ctx context.Context, server, name string) (string, error) {
	body, err := json.Marshal(map[string]string{"displayName": name})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/auth/guest", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build guest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request guest token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("guest token: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode guest token: %w", err)
	}
	return result.Token, nil
}
