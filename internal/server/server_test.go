package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/config"
	"github.com/lox/minesweeper/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameFromDefaultPreset(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)
	conn := dialTestServer(t, ts)

	state := expectState(t, roundTrip(t, conn, protocol.TypeNewGame, nil))
	assert.NotEmpty(t, state.GameID)
	assert.Equal(t, 9, state.Rows)
	assert.Equal(t, 9, state.Cols)
	assert.Equal(t, 10, state.Mines)
	assert.Equal(t, board.InProgress, state.Outcome())
	require.Len(t, state.Cells, 9)
	for _, row := range state.Cells {
		require.Len(t, row, 9)
		for _, cell := range row {
			assert.Equal(t, protocol.CellView{}, cell)
		}
	}
}

func TestNewGameVariants(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)

	t.Run("named preset", func(t *testing.T) {
		conn := dialTestServer(t, ts)
		state := expectState(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Preset: "expert"}))
		assert.Equal(t, 16, state.Rows)
		assert.Equal(t, 30, state.Cols)
		assert.Equal(t, 99, state.Mines)
	})

	t.Run("explicit dimensions", func(t *testing.T) {
		conn := dialTestServer(t, ts)
		state := expectState(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 4, Cols: 7, Mines: 3}))
		assert.Equal(t, 4, state.Rows)
		assert.Equal(t, 7, state.Cols)
		assert.Equal(t, 3, state.Mines)
	})

	t.Run("unknown preset", func(t *testing.T) {
		conn := dialTestServer(t, ts)
		expectError(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Preset: "nightmare"}), protocol.CodeInvalidGame)
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		conn := dialTestServer(t, ts)
		expectError(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 0, Cols: 5, Mines: 1}), protocol.CodeInvalidGame)
	})

	t.Run("too many hazards", func(t *testing.T) {
		conn := dialTestServer(t, ts)
		expectError(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 2, Cols: 2, Mines: 4}), protocol.CodeInvalidGame)
	})
}

func TestRejectedNewGameLeavesNoSession(t *testing.T) {
	t.Parallel()

	srv, ts := startTestServer(t, nil)
	conn := dialTestServer(t, ts)

	expectError(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 3, Cols: 3, Mines: 9}), protocol.CodeInvalidGame)
	assert.Zero(t, srv.Sessions().Len())
}

func TestMovesRequireGame(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)
	conn := dialTestServer(t, ts)

	expectError(t, roundTrip(t, conn, protocol.TypeOpen, protocol.Move{Row: 0, Col: 0}), protocol.CodeNoGame)
	expectError(t, roundTrip(t, conn, protocol.TypeFlag, protocol.Move{Row: 0, Col: 0}), protocol.CodeNoGame)
	expectError(t, roundTrip(t, conn, protocol.TypeRestart, nil), protocol.CodeNoGame)
	expectError(t, roundTrip(t, conn, protocol.TypeState, nil), protocol.CodeNoGame)
}

func TestMalformedMessages(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)
	conn := dialTestServer(t, ts)

	expectError(t, roundTrip(t, conn, protocol.MessageType("shuffle"), nil), protocol.CodeUnknownMessageType)
	expectError(t, roundTrip(t, conn, protocol.TypeOpen, nil), protocol.CodeInvalidMessage)
	expectError(t, roundTrip(t, conn, protocol.TypeOpen, map[string]string{"row": "x"}), protocol.CodeInvalidMessage)
	expectError(t, roundTrip(t, conn, protocol.TypeJoin, nil), protocol.CodeInvalidMessage)
}

func TestFlagAndStateRoundTrip(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)
	conn := dialTestServer(t, ts)
	expectState(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 5, Cols: 5, Mines: 5}))

	state := expectState(t, roundTrip(t, conn, protocol.TypeFlag, protocol.Move{Row: 1, Col: 2}))
	assert.Equal(t, 1, state.Flags)
	assert.True(t, state.Cells[1][2].Flagged)

	// Out of range moves are ignored
	state = expectState(t, roundTrip(t, conn, protocol.TypeFlag, protocol.Move{Row: 9, Col: 0}))
	assert.Equal(t, 1, state.Flags)

	state = expectState(t, roundTrip(t, conn, protocol.TypeState, nil))
	assert.True(t, state.Cells[1][2].Flagged)

	state = expectState(t, roundTrip(t, conn, protocol.TypeFlag, protocol.Move{Row: 1, Col: 2}))
	assert.Zero(t, state.Flags)
}

func TestOpenEndsCrowdedBoard(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)
	conn := dialTestServer(t, ts)
	expectState(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 3, Cols: 3, Mines: 8}))

	// One safe cell: opening anything either loses or clears the board
	state := expectState(t, roundTrip(t, conn, protocol.TypeOpen, protocol.Move{Row: 1, Col: 1}))
	require.True(t, state.Outcome().Over())
	if state.Outcome() == board.Lose {
		require.NotNil(t, state.Exploded)
		assert.Equal(t, board.Position{Row: 1, Col: 1}, *state.Exploded)
		hazards := 0
		for _, row := range state.Cells {
			for _, cell := range row {
				if cell.Hazard {
					hazards++
				}
			}
		}
		assert.Equal(t, 8, hazards)
	} else {
		assert.True(t, state.Cells[1][1].Revealed)
		assert.Equal(t, 8, state.Cells[1][1].Count)
	}

	restarted := expectState(t, roundTrip(t, conn, protocol.TypeRestart, nil))
	assert.Equal(t, state.GameID, restarted.GameID)
	assert.Equal(t, board.InProgress, restarted.Outcome())
	assert.Equal(t, 8, restarted.Mines)
	assert.Nil(t, restarted.Exploded)
}

func TestJoinSharesSession(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)
	first := dialTestServer(t, ts)
	second := dialTestServer(t, ts)

	created := expectState(t, roundTrip(t, first, protocol.TypeNewGame, nil))
	expectState(t, roundTrip(t, first, protocol.TypeFlag, protocol.Move{Row: 0, Col: 0}))

	joined := expectState(t, roundTrip(t, second, protocol.TypeJoin, protocol.Join{GameID: created.GameID}))
	assert.Equal(t, created.GameID, joined.GameID)
	assert.True(t, joined.Cells[0][0].Flagged)

	expectState(t, roundTrip(t, second, protocol.TypeFlag, protocol.Move{Row: 0, Col: 1}))
	state := expectState(t, roundTrip(t, first, protocol.TypeState, nil))
	assert.Equal(t, 2, state.Flags)

	expectError(t, roundTrip(t, second, protocol.TypeJoin, protocol.Join{GameID: "missing"}), protocol.CodeNoGame)
}

func TestSessionSurvivesDisconnect(t *testing.T) {
	t.Parallel()

	srv, ts := startTestServer(t, nil)
	first := dialTestServer(t, ts)
	created := expectState(t, roundTrip(t, first, protocol.TypeNewGame, nil))
	require.NoError(t, first.Close())

	second := dialTestServer(t, ts)
	joined := expectState(t, roundTrip(t, second, protocol.TypeJoin, protocol.Join{GameID: created.GameID}))
	assert.Equal(t, created.GameID, joined.GameID)
	assert.Equal(t, 1, srv.Sessions().Len())
}

func TestSessionLimit(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.MaxSessions = 1
	_, ts := startTestServer(t, cfg)

	first := dialTestServer(t, ts)
	expectState(t, roundTrip(t, first, protocol.TypeNewGame, nil))

	second := dialTestServer(t, ts)
	expectError(t, roundTrip(t, second, protocol.TypeNewGame, nil), protocol.CodeTooManySessions)

	// Starting over on an attached session reuses it
	expectState(t, roundTrip(t, first, protocol.TypeNewGame, protocol.NewGame{Preset: "classic"}))
}

func TestGamesEndpoint(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, nil)
	conn := dialTestServer(t, ts)
	created := expectState(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Preset: "classic"}))

	resp, err := http.Get(ts.URL + "/games")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var games []SessionSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, created.GameID, games[0].ID)
	assert.Equal(t, 10, games[0].Rows)
	assert.Equal(t, 16, games[0].Cols)
	assert.Equal(t, 20, games[0].Mines)
	assert.Equal(t, "in_progress", games[0].State)

	post, err := http.Post(ts.URL+"/games", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestServeListenerLifecycle(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(config.Default(), testLogger(), WithSeed(7))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, WaitForHealthy(waitCtx, "http://"+ln.Addr().String()))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServerRejectsBadIdleTimeout(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.IdleTimeout = "soon"
	_, err := NewServer(cfg, testLogger())
	assert.Error(t, err)
}

func TestNewGameAfterReapStartsFreshSession(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	srv, ts := startTestServer(t, nil, WithClock(mClock))
	conn := dialTestServer(t, ts)

	first := expectState(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 3, Cols: 3, Mines: 1}))

	mClock.Set(mClock.Now().Add(time.Hour))
	require.Equal(t, 1, srv.Sessions().ReapIdle())

	second := expectState(t, roundTrip(t, conn, protocol.TypeNewGame, protocol.NewGame{Rows: 3, Cols: 3, Mines: 1}))
	assert.NotEqual(t, first.GameID, second.GameID)
	assert.Equal(t, 1, srv.Sessions().Len())

	_, err := srv.Sessions().Get(second.GameID)
	require.NoError(t, err)

	opened := expectState(t, roundTrip(t, conn, protocol.TypeOpen, protocol.Move{Row: 0, Col: 0}))
	assert.Equal(t, second.GameID, opened.GameID)
}

func TestReapIntervalHasFloor(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.IdleTimeout = "1ns"
	srv, err := NewServer(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, minReapInterval, srv.reapInterval)

	cfg.Server.IdleTimeout = "10m"
	srv, err = NewServer(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, srv.reapInterval)
}

func TestSendAfterCloseReportsConnectionClosed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Connection{send: make(chan *protocol.Message, 1), logger: testLogger(), ctx: ctx, cancel: cancel}

	msg, err := protocol.NewMessage(protocol.TypeState, nil)
	require.NoError(t, err)
	err = c.SendMessage(msg)
	assert.ErrorIs(t, err, ErrConnectionClosed)
	assert.NotErrorIs(t, err, websocket.ErrCloseSent)
}
