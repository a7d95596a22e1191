package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/player"
	"github.com/vsariola/looper/server"
)

type stillClock struct{}

func (stillClock) Init()                {}
func (stillClock) Refresh()             {}
func (stillClock) Tap(uint32)           {}
func (stillClock) Position() looper.Pos { return 0 }

type nullSink struct{}

func (nullSink) NoteOn(pitch, velocity byte) {}
func (nullSink) NoteOff(pitch byte)          {}

func newServer(t *testing.T) *httptest.Server {
	broker := player.NewBroker()
	p := player.NewWithClock(broker, nullSink{}, looper.DefaultSequencerSettings(), stillClock{})
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx, time.Millisecond, time.Millisecond)
	ts := httptest.NewServer(server.New(broker, time.Second, nil).Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-broker.FinishedPlayer
	})
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func status(t *testing.T, ts *httptest.Server) server.StatusResponse {
	resp := do(t, ts, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s server.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	return s
}

const tape = `
settings:
  clock_division: 14
  loop_length: 8
  play_mode: looper
notes:
  - {on: 100, off: 200, pitch: 60, velocity: 100}
  - {on: 300, off: 400, pitch: 62, velocity: 90}
  - {on: 500, off: 0, pitch: 64, velocity: 80, open: true}
`

func TestEditTape(t *testing.T) {
	ts := newServer(t)
	assert.Empty(t, status(t, ts).Notes)

	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodPut, "/tape", tape).StatusCode)
	s := status(t, ts)
	require.Len(t, s.Notes, 3)
	assert.Equal(t, uint8(8), s.Settings.LoopLength)
	assert.True(t, s.Notes[2].Open)

	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodDelete, "/notes/newest", "").StatusCode)
	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodDelete, "/notes/oldest", "").StatusCode)
	s = status(t, ts)
	require.Len(t, s.Notes, 1)
	assert.Equal(t, byte(62), s.Notes[0].Pitch)

	resp := do(t, ts, http.MethodGet, "/tape", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pitch: 62")
	assert.Contains(t, string(body), "loop_length: 8")

	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodDelete, "/tape", "").StatusCode)
	assert.Empty(t, status(t, ts).Notes)
}

func TestBadRequests(t *testing.T) {
	ts := newServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPut, "/tape", "notes: {").StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPut, "/settings", `{"play_mode": "drums", "loop_length": 4}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPut, "/settings", `{"play_mode": "looper"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPut, "/recording", `yes`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPut, "/settings", `{"clock_division": 26, "loop_length": 4}`).StatusCode)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, ts, http.MethodPost, "/status", "").StatusCode)
}

func TestTapeWithBadSettingsIsRejected(t *testing.T) {
	ts := newServer(t)
	bad := strings.Replace(tape, "loop_length: 8", "loop_length: 0", 1)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPut, "/tape", bad).StatusCode)
	s := status(t, ts)
	assert.Empty(t, s.Notes)
	assert.Equal(t, looper.DefaultSequencerSettings(), s.Settings)
}

func TestSettingsAndRecording(t *testing.T) {
	ts := newServer(t)
	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodPut, "/settings", `{"clock_division": 7, "loop_length": 4, "play_mode": "sequencer"}`).StatusCode)
	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodPut, "/recording", `{"recording": true}`).StatusCode)
	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodPost, "/rewind", "").StatusCode)
	s := status(t, ts)
	assert.True(t, s.Recording)
	assert.Equal(t, looper.SequencerSettings{ClockDivision: 7, LoopLength: 4, PlayMode: looper.PlayModeSequencer}, s.Settings)
}

func TestCORS(t *testing.T) {
	ts := newServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPlayerNotResponding(t *testing.T) {
	broker := player.NewBroker()
	ts := httptest.NewServer(server.New(broker, 10*time.Millisecond, nil).Handler())
	defer ts.Close()
	resp := do(t, ts, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}
