package feed

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lobevents/orderbook"
)

func TestDecodeShapes(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Message
	}{
		{
			name: "top level numbers",
			line: `{"type":"snapshot","bids":[[100,5]],"asks":[[101,5],[102,0]]}`,
			want: Message{Kind: Snapshot, Bids: []orderbook.Level{{Price: 100, Volume: 5}}, Asks: []orderbook.Level{{Price: 101, Volume: 5}, {Price: 102, Volume: 0}}},
		},
		{
			name: "nested data with strings",
			line: `{"type":"delta","data":{"b":[["100.5","1.25"]],"a":[]}}`,
			want: Message{Kind: Delta, Bids: []orderbook.Level{{Price: 100.5, Volume: 1.25}}, Asks: []orderbook.Level{}},
		},
		{
			name: "missing sides",
			line: `{"type":"delta"}`,
			want: Message{Kind: Delta, Bids: []orderbook.Level{}, Asks: []orderbook.Level{}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Decode([]byte(c.line))
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"type":`,
		"no type":         `{"bids":[[1,1]]}`,
		"short level":     `{"type":"delta","bids":[[1]]}`,
		"negative volume": `{"type":"delta","asks":[[1,-2]]}`,
		"bad number":      `{"type":"delta","asks":[["abc",1]]}`,
		"unknown type":    `{"type":"trade","bids":[]}`,
		"huge price":      `{"type":"snapshot","bids":[[1e400,1]]}`,
		"huge volume":     `{"type":"delta","asks":[[1,"1e400"]]}`,
		"null level":      `{"type":"delta","bids":[[null,null]]}`,
		"null volume":     `{"type":"delta","bids":[[100,null]]}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(line))
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}

	_, err := Decode([]byte(`{"type":"trade"}`))
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestDecoderFailFast(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"snapshot","bids":[[100,5]],"asks":[[101,5]]}`,
		`oops`,
		`{"type":"delta","bids":[[100,6]]}`,
	}, "\n")
	d := NewDecoder(strings.NewReader(input))

	msg, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, msg.Index)

	_, err = d.Next()
	var lineErr *LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 1, lineErr.Index)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecoderSkip(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"snapshot","bids":[[100,5]],"asks":[[101,5]]}`,
		``,
		`{"type":"heartbeat"}`,
		`{"type":"delta","bids":[[100,6]]}`,
	}, "\n")
	var skipped []int
	d := NewDecoder(strings.NewReader(input),
		WithPolicy(Skip),
		WithIndexOrigin(10),
		WithLogger(zaptest.NewLogger(t)),
		WithSkipHook(func(index int, err error) {
			assert.ErrorIs(t, err, ErrUnsupportedKind)
			skipped = append(skipped, index)
		}),
	)

	var indexes []int
	for {
		msg, err := d.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		indexes = append(indexes, msg.Index)
	}
	assert.Equal(t, []int{10, 13}, indexes)
	assert.Equal(t, []int{12}, skipped)
}

func TestDecoderLineTooLong(t *testing.T) {
	line := `{"type":"delta","bids":[[100,6]]}`
	d := NewDecoder(strings.NewReader(line+"\n"+line), WithMaxLineBytes(8), WithPolicy(Skip))
	_, err := d.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FailFast, p)

	p, err = ParsePolicy(" SKIP ")
	require.NoError(t, err)
	assert.Equal(t, Skip, p)

	_, err = ParsePolicy("retry")
	assert.Error(t, err)
}
