package client

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/config"
	"github.com/lox/minesweeper/internal/protocol"
	"github.com/lox/minesweeper/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func startServer(t *testing.T) string {
	t.Helper()

	srv, err := server.NewServer(config.Default(), testLogger(), server.WithSeed(3))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func dial(t *testing.T, url string) *Remote {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := Dial(ctx, url, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRemoteGameFlow(t *testing.T) {
	t.Parallel()

	r := dial(t, startServer(t))
	ctx := testContext(t)

	state, err := r.NewGame(ctx, protocol.NewGame{Preset: "intermediate"})
	require.NoError(t, err)
	assert.Equal(t, 16, state.Rows)
	assert.Equal(t, 40, state.Mines)

	state, err = r.Flag(ctx, 3, 4)
	require.NoError(t, err)
	assert.True(t, state.Cells[3][4].Flagged)

	state, err = r.Open(ctx, 3, 4)
	require.NoError(t, err)
	assert.False(t, state.Cells[3][4].Flagged, "opening clears the flag")

	state, err = r.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, state.Cols)

	state, err = r.Restart(ctx)
	require.NoError(t, err)
	assert.Equal(t, board.InProgress, state.Outcome())
	assert.Zero(t, state.Flags)
}

func TestRemoteServerErrors(t *testing.T) {
	t.Parallel()

	r := dial(t, startServer(t))
	ctx := testContext(t)

	_, err := r.Open(ctx, 0, 0)
	var serr *ServerError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, protocol.CodeNoGame, serr.Code)

	_, err = r.NewGame(ctx, protocol.NewGame{Rows: 2, Cols: 2, Mines: 4})
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, protocol.CodeInvalidGame, serr.Code)
}

func TestRemoteJoin(t *testing.T) {
	t.Parallel()

	url := startServer(t)
	host := dial(t, url)
	guest := dial(t, url)
	ctx := testContext(t)

	created, err := host.NewGame(ctx, protocol.NewGame{})
	require.NoError(t, err)

	joined, err := guest.Join(ctx, created.GameID)
	require.NoError(t, err)
	assert.Equal(t, created.GameID, joined.GameID)

	_, err = guest.Flag(ctx, 2, 2)
	require.NoError(t, err)

	state, err := host.View(ctx)
	require.NoError(t, err)
	assert.True(t, state.Cells[2][2].Flagged)
}

func TestRemoteConcurrentRequests(t *testing.T) {
	t.Parallel()

	r := dial(t, startServer(t))
	ctx := testContext(t)

	_, err := r.NewGame(ctx, protocol.NewGame{Preset: "expert"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.View(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestRemoteAfterClose(t *testing.T) {
	t.Parallel()

	r := dial(t, startServer(t))
	require.NoError(t, r.Close())

	_, err := r.View(testContext(t))
	assert.Error(t, err)
}

func TestDialRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := Dial(testContext(t), "://nope", testLogger())
	assert.Error(t, err)
}
