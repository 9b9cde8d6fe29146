package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"lobevents/extractor"
)

type Format string

const (
	// Events writes one event per line.
	Events Format = "events"
	// Records writes one surfaced record per line.
	Records Format = "records"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case Events, Records:
		return f, nil
	case "":
		return Events, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

type Repo interface {
	Write(rec extractor.Record) error
	Close() error
}

// JSONLines writes newline-delimited JSON.
type JSONLines struct {
	w      *bufio.Writer
	enc    *json.Encoder
	format Format
	closer io.Closer
}

var _ Repo = (*JSONLines)(nil)

func New(w io.Writer, format Format) *JSONLines {
	bw := bufio.NewWriter(w)
	return &JSONLines{w: bw, enc: json.NewEncoder(bw), format: format}
}

// Create opens path for writing; "" and "-" mean standard output, which is
// flushed but never closed.
func Create(path string, format Format) (*JSONLines, error) {
	if path == "" || path == "-" {
		return New(os.Stdout, format), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	j := New(f, format)
	j.closer = f
	return j, nil
}

func (j *JSONLines) Write(rec extractor.Record) error {
	if j.format == Records {
		return j.enc.Encode(rec)
	}
	for _, e := range rec.Events {
		if err := j.enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (j *JSONLines) Close() error {
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
