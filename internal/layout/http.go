package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

const maxRequestSize = 1 << 20 // 1MB

type solveRequest struct {
	Nodes []Node `json:"nodes"`
}

type solveResponse struct {
	Positions []Position `json:"positions"`
}

// HTTPSolver delegates to a remote layout service speaking the Handler
// protocol.
type HTTPSolver struct {
	URL    string
	Client *http.Client
	Token  string
}

// NewHTTPSolver returns a solver that POSTs to url.
func NewHTTPSolver(url string) *HTTPSolver {
	return &HTTPSolver{URL: url, Client: http.DefaultClient}
}

func (s *HTTPSolver) Solve(ctx context.Context, nodes []Node) ([]Position, error) {
	body, err := json.Marshal(solveRequest{Nodes: nodes})
	if err != nil {
		return nil, fmt.Errorf("marshal nodes: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call layout service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("layout service returned %d", resp.StatusCode)
	}

	var out solveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	return out.Positions, nil
}

// Handler serves a Solver over HTTP.
type Handler struct {
	solver Solver
}

func NewHandler(solver Solver) *Handler {
	return &Handler{solver: solver}
}

// Solve handles POST /api/layout with {"nodes": [...]}.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	positions, err := h.solver.Solve(r.Context(), req.Nodes)
	if err != nil {
		if errors.Is(err, ErrNoNodes) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nodes are required"})
			return
		}
		slog.Error("layout solver failed", "error", err, "nodes", len(req.Nodes))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, solveResponse{Positions: positions})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
