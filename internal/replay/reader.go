package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"rebound/internal/sim"
)

// Reader streams a replay file: header first, then frames in tick order.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	header  Header
}

// Open reads and validates the header of a replay file.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		_ = file.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("replay: read header: %w", err)
		}
		return nil, fmt.Errorf("replay: %s is empty", path)
	}
	var header Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("replay: parse header: %w", err)
	}
	if err := header.Validate(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Reader{file: file, scanner: scanner, header: header}, nil
}

// Header returns the replay's header record.
func (r *Reader) Header() Header { return r.header }

// Next returns the next frame, or io.EOF when the replay is exhausted.
func (r *Reader) Next() (sim.Frame, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return sim.Frame{}, fmt.Errorf("replay: read frame: %w", err)
		}
		return sim.Frame{}, io.EOF
	}
	var frame sim.Frame
	if err := json.Unmarshal(r.scanner.Bytes(), &frame); err != nil {
		return sim.Frame{}, fmt.Errorf("replay: parse frame: %w", err)
	}
	return frame, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.file.Close() }
