package replay

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"rebound/internal/sim"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func testHeader() Header {
	return Header{
		Version:   SchemaVersion,
		MatchID:   uuid.NewString(),
		Tuning:    sim.DefaultTuning(),
		FrameRate: 60,
		StartedAt: time.Now().UTC(),
	}
}

func recordMatch(t *testing.T, path string, steps int) Header {
	t.Helper()
	header := testHeader()
	rec, err := NewRecorder(path, header, Config{FlushInterval: 100 * time.Millisecond})
	require.NoError(t, err)

	world := sim.NewWorld(header.Tuning)
	for i := 0; i < steps; i++ {
		world.Step(1.0 / 60)
		require.NoError(t, rec.Push(world.Snapshot()))
		world.Drain()
	}
	rec.Stop(true)
	return header
}

func TestRecorderRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "match"+FileExt)
	header := recordMatch(t, path, 90)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, header.MatchID, r.Header().MatchID)
	assert.Equal(t, header.Tuning, r.Header().Tuning)

	var frames int
	var lastTick uint64
	for {
		frame, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames++
		assert.Greater(t, frame.Tick, lastTick, "ticks must be strictly increasing")
		lastTick = frame.Tick
	}
	assert.Equal(t, 90, frames)
}

func TestRecorderStopWithoutTailDropsBuffer(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "match"+FileExt)
	// Long flush interval: nothing reaches disk before Stop.
	rec, err := NewRecorder(path, testHeader(), Config{FlushInterval: time.Hour})
	require.NoError(t, err)

	world := sim.NewWorld(sim.DefaultTuning())
	for i := 0; i < 10; i++ {
		world.Step(1.0 / 60)
		require.NoError(t, rec.Push(world.Snapshot()))
	}
	rec.Stop(false)
	assert.Equal(t, uint64(0), rec.Frames())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestPushAfterStopFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "match"+FileExt)
	rec, err := NewRecorder(path, testHeader())
	require.NoError(t, err)
	rec.Stop(true)

	assert.Error(t, rec.Push(sim.Frame{Tick: 1}))
	// Second stop is a no-op rather than a deadlock.
	rec.Stop(true)
}

func TestNewRecorderRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match"+FileExt)
	_, err := NewRecorder(path, Header{Version: 99, MatchID: "x", FrameRate: 60})
	assert.Error(t, err)
	_, err = NewRecorder(path, Header{Version: SchemaVersion, FrameRate: 60})
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty"+FileExt)
	require.NoError(t, writeFile(empty, ""))
	_, err := Open(empty)
	assert.Error(t, err)

	junk := filepath.Join(dir, "junk"+FileExt)
	require.NoError(t, writeFile(junk, "not json\n"))
	_, err = Open(junk)
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	recordMatch(t, filepath.Join(dir, "older"+FileExt), 5)
	time.Sleep(20 * time.Millisecond)
	newest := recordMatch(t, filepath.Join(dir, "newer"+FileExt), 5)

	// A junk file must not break listing.
	require.NoError(t, writeFile(filepath.Join(dir, "broken"+FileExt), "oops\n"))

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, newest.MatchID, infos[0].Header.MatchID)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	name := FileName("a1b2c3d4-0000-0000-0000-000000000000", at)
	assert.Equal(t, "20260314-092653-a1b2c3d4"+FileExt, name)
}
