package feed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Policy decides what the decoder does with a line it cannot decode.
type Policy string

const (
	FailFast Policy = "fail"
	Skip     Policy = "skip"
)

const DefaultMaxLineBytes = 4 << 20

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailFast, Skip:
		return p, nil
	case "":
		return FailFast, nil
	default:
		return "", fmt.Errorf("unknown malformed-message policy %q", s)
	}
}

// Decoder reads newline-delimited messages. Every line consumes one index,
// blank lines included.
type Decoder struct {
	scanner *bufio.Scanner
	index   int
	policy  Policy
	logger  *zap.Logger
	onSkip  func(index int, err error)
}

type Option func(*Decoder)

func WithPolicy(p Policy) Option {
	return func(d *Decoder) { d.policy = p }
}

// WithIndexOrigin sets the index of the first line.
func WithIndexOrigin(origin int) Option {
	return func(d *Decoder) { d.index = origin }
}

func WithMaxLineBytes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.scanner.Buffer(make([]byte, 0, min(n, 64*1024)), n)
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSkipHook is called for every line dropped under the Skip policy.
func WithSkipHook(fn func(index int, err error)) Option {
	return func(d *Decoder) { d.onSkip = fn }
}

func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		scanner: bufio.NewScanner(r),
		policy:  FailFast,
		logger:  zap.NewNop(),
	}
	d.scanner.Buffer(make([]byte, 0, 64*1024), DefaultMaxLineBytes)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next returns the next message, or io.EOF once the input is exhausted.
// Read errors are returned regardless of the policy.
func (d *Decoder) Next() (Message, error) {
	for d.scanner.Scan() {
		index := d.index
		d.index++
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := Decode(line)
		if err == nil {
			msg.Index = index
			return msg, nil
		}
		if d.policy != Skip {
			return Message{}, &LineError{Index: index, Err: err}
		}
		d.logger.Warn("skipping malformed line", zap.Int("index", index), zap.Error(err))
		if d.onSkip != nil {
			d.onSkip(index, err)
		}
	}
	if err := d.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Message{}, &LineError{Index: d.index, Err: err}
		}
		return Message{}, fmt.Errorf("read feed: %w", err)
	}
	return Message{}, io.EOF
}
