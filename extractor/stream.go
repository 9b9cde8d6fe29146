package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"lobevents/feed"
)

// ErrStop ends ParseFile early without reporting an error.
var ErrStop = errors.New("stop iteration")

// Source yields decoded messages and io.EOF at the end. *feed.Decoder is a Source.
type Source interface {
	Next() (feed.Message, error)
}

// Stream is a single-pass sequence of records. Each record depends on the book
// state left by all earlier messages, so a stream cannot be restarted.
type Stream struct {
	src    Source
	ex     *Extractor
	closer io.Closer
	rec    Record
	err    error
	done   bool
}

func NewStream(src Source, ex *Extractor) *Stream {
	return &Stream{src: src, ex: ex}
}

// Open streams the file at path; "-" reads standard input. The caller must
// Close the stream.
func Open(path string, ex *Extractor, opts ...feed.Option) (*Stream, error) {
	if path == "-" {
		return NewStream(feed.NewDecoder(os.Stdin, opts...), ex), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	s := NewStream(feed.NewDecoder(f, opts...), ex)
	s.closer = f
	return s, nil
}

// Next advances to the next surfaced record.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	for {
		msg, err := s.src.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			return false
		}
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		if rec, ok := s.ex.Process(msg); ok {
			s.rec = rec
			return true
		}
	}
}

func (s *Stream) Record() Record {
	return s.rec
}

func (s *Stream) Err() error {
	return s.err
}

func (s *Stream) Close() error {
	s.done = true
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}

// ParseFile calls fn for every surfaced record of the file at path. The file
// is closed however iteration ends. Returning ErrStop from fn stops early.
func ParseFile(path string, ex *Extractor, fn func(Record) error, opts ...feed.Option) (err error) {
	s, err := Open(path, ex, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close feed: %w", cerr)
		}
	}()
	for s.Next() {
		if err := fn(s.Record()); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return s.Err()
}
