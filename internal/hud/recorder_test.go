// File: internal/hud/recorder_test.go
package hud

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sablewood/arbor/internal/motor"
)

// memWriter is an in-memory WriteCloser standing in for the rotating log.
type memWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool

	// When set, Write parks until release is closed, simulating a stalled
	// disk so queue-full behavior can be exercised.
	stall   bool
	release chan struct{}
}

func (m *memWriter) Write(p []byte) (int, error) {
	if m.stall {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Write(p)
}

func (m *memWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memWriter) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.String()
}

func tapAt(x, y int) motor.TapEvent {
	return motor.TapEvent{
		Time:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		X:         x,
		Y:         y,
		Kind:      motor.TapClick,
		Button:    motor.ButtonLeft,
		SessionID: uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Tag:       "test",
	}
}

func TestRecorderWritesOneLinePerTap(t *testing.T) {
	out := &memWriter{}
	rec := newRecorder(out, 8, zap.NewNop())

	rec.OnTap(tapAt(10, 20))
	rec.OnTap(tapAt(30, 40))
	require.NoError(t, rec.Close())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"x":10`)
	assert.Contains(t, lines[0], `"y":20`)
	assert.Contains(t, lines[1], `"x":30`)
	assert.True(t, out.closed)
	assert.Zero(t, rec.Dropped())
}

func TestRecorderRoundTripsThroughReadRecords(t *testing.T) {
	out := &memWriter{}
	rec := newRecorder(out, 8, zap.NewNop())

	want := tapAt(123, 456)
	rec.OnTap(want)
	require.NoError(t, rec.Close())

	got, err := ReadRecords(strings.NewReader(out.String()))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.X, got[0].X)
	assert.Equal(t, want.Y, got[0].Y)
	assert.Equal(t, want.Kind, got[0].Kind)
	assert.Equal(t, want.SessionID, got[0].SessionID)
	assert.True(t, want.Time.Equal(got[0].Time))
}

func TestRecorderDropsInsteadOfBlocking(t *testing.T) {
	out := &memWriter{stall: true, release: make(chan struct{})}
	rec := newRecorder(out, 1, zap.NewNop())

	// First event occupies the drain goroutine inside the stalled Write,
	// second fills the queue, the rest must drop without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			rec.OnTap(tapAt(i, i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnTap blocked on a stalled writer")
	}

	assert.NotZero(t, rec.Dropped())
	close(out.release)
	require.NoError(t, rec.Close())
}

func TestRecorderOnTapAfterClose(t *testing.T) {
	out := &memWriter{}
	rec := newRecorder(out, 4, zap.NewNop())
	require.NoError(t, rec.Close())

	assert.NotPanics(t, func() { rec.OnTap(tapAt(1, 1)) })
	assert.Empty(t, out.String())
}

func TestReadRecordsSkipsMalformedLines(t *testing.T) {
	src := strings.Join([]string{
		`{"ts":"2025-06-01T09:00:00Z","x":1,"y":2,"kind":"click","button":"left","session":"11111111-2222-3333-4444-555555555555"}`,
		`this is not json`,
		``,
		`{"ts":"2025-06-01T09:00:01Z","x":3,"y":4,"kind":"click","button":"left","session":"11111111-2222-3333-4444-555555555555"}`,
	}, "\n")

	got, err := ReadRecords(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].X)
	assert.Equal(t, 3, got[1].X)
}
