// internal/replay/replay.go
//
// Replay files are JSON lines: a header record first, then one frame record
// per simulation tick. The format is append-friendly, so a crash mid-match
// still leaves a playable file up to the last flushed frame.

package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rebound/internal/sim"
)

// SchemaVersion is the replay file format version this package writes.
const SchemaVersion = 1

// FileExt is the extension recorded matches are stored under.
const FileExt = ".replay"

// Header is the first record of every replay file.
type Header struct {
	Version   int        `json:"version"`
	MatchID   string     `json:"match_id"`
	Tuning    sim.Tuning `json:"tuning"`
	FrameRate int        `json:"frame_rate"`
	StartedAt time.Time  `json:"started_at"`
}

// Validate checks that a header can drive playback.
func (h Header) Validate() error {
	if h.Version != SchemaVersion {
		return fmt.Errorf("replay: unsupported schema version %d", h.Version)
	}
	if strings.TrimSpace(h.MatchID) == "" {
		return fmt.Errorf("replay: header missing match id")
	}
	if h.FrameRate <= 0 {
		return fmt.Errorf("replay: header frame rate must be positive")
	}
	return nil
}

// Info describes one stored replay for pickers and listings.
type Info struct {
	Path     string
	Header   Header
	Modified time.Time
}

// List returns the replays under dir, newest first. Unreadable files are
// skipped so one truncated recording can't hide the rest.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("replay: read dir %s: %w", dir, err)
	}
	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != FileExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		r, err := Open(path)
		if err != nil {
			continue
		}
		hdr := r.Header()
		_ = r.Close()
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Path: path, Header: hdr, Modified: fi.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Modified.After(infos[j].Modified)
	})
	return infos, nil
}

// FileName builds the canonical replay file name for a match.
func FileName(matchID string, startedAt time.Time) string {
	return fmt.Sprintf("%s-%s%s", startedAt.UTC().Format("20060102-150405"), shortID(matchID), FileExt)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
