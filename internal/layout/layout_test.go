package layout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridSolver(t *testing.T) {
	g := NewGridSolver(10, 250)
	nodes := []Node{
		{ID: "a", Width: 100, Height: 50},
		{ID: "b", Width: 100, Height: 80},
		{ID: "c", Width: 100, Height: 30},
		{ID: "d", Width: 400, Height: 20},
	}

	got, err := g.Solve(context.Background(), nodes)
	require.NoError(t, err)
	assert.Equal(t, []Position{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 110, Y: 0},
		{ID: "c", X: 0, Y: 90},
		{ID: "d", X: 0, Y: 130},
	}, got)
}

func TestGridSolver_Errors(t *testing.T) {
	g := NewGridSolver(10, 250)

	_, err := g.Solve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoNodes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Solve(ctx, []Node{{ID: "a", Width: 1, Height: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSolver_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(NewGridSolver(20, 0)).Solve))
	defer srv.Close()

	s := NewHTTPSolver(srv.URL)
	got, err := s.Solve(context.Background(), []Node{
		{ID: "a", Width: 100, Height: 100},
		{ID: "b", Width: 50, Height: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, []Position{{ID: "a", X: 0, Y: 0}, {ID: "b", X: 120, Y: 0}}, got)
}

func TestHTTPSolver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(NewGridSolver(20, 0)).Solve))
	defer srv.Close()

	_, err := NewHTTPSolver(srv.URL).Solve(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestHandler_InvalidBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/layout", strings.NewReader("{"))
	NewHandler(NewGridSolver(0, 0)).Solve(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}
