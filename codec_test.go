package rangepool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: " yml ", want: FormatYAML},
		{in: "toml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	require.Equal(t, "json", FormatJSON.String())
	require.Equal(t, "yaml", FormatYAML.String())
	require.Equal(t, "Format(7)", Format(7).String())
}

func TestSnapshotCodec_RoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			p := buildPool(t)

			var buf bytes.Buffer
			require.NoError(t, p.WriteSnapshot(&buf, f))

			clone, err := ReadPool(&buf, f)
			require.NoError(t, err)
			require.Equal(t, p.Serialize(), clone.Serialize())
		})
	}
}

func TestSnapshotCodec_EmptyPool(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeSnapshot(&buf, PoolSnapshot{Length: 3}, f))

			s, err := DecodeSnapshot(&buf, f)
			require.NoError(t, err)
			require.Equal(t, 3, s.Length)
			require.Empty(t, s.Workers)
		})
	}
}

func TestEncodeSnapshot_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	s := PoolSnapshot{Length: 4, Workers: []WorkerSnapshot{{Active: true, Start: 0, Limit: 4, Current: 1}}}
	require.NoError(t, EncodeSnapshot(&buf, s, FormatJSON))
	require.JSONEq(t, `{"length":4,"workers":[{"active":true,"start":0,"limit":4,"current":1}]}`, buf.String())
}

func TestEncodeSnapshot_YAMLShape(t *testing.T) {
	var buf bytes.Buffer
	s := PoolSnapshot{Length: 4, Workers: []WorkerSnapshot{{Active: true, Start: 0, Limit: 4, Current: 1}}}
	require.NoError(t, EncodeSnapshot(&buf, s, FormatYAML))
	require.YAMLEq(t, "length: 4\nworkers:\n  - active: true\n    start: 0\n    limit: 4\n    current: 1\n", buf.String())
}

func TestEncodeSnapshot_UnknownFormat(t *testing.T) {
	err := EncodeSnapshot(&bytes.Buffer{}, PoolSnapshot{}, Format(9))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = DecodeSnapshot(strings.NewReader("{}"), Format(9))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecodeSnapshot_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "not json", in: `length: 3`},
		{name: "missing workers", in: `{"length": 3}`},
		{name: "missing length", in: `{"workers": []}`},
		{name: "fractional length", in: `{"length": 3.5, "workers": []}`},
		{name: "negative length", in: `{"length": -3, "workers": []}`},
		{name: "unknown key", in: `{"length": 3, "workers": [], "complete": false}`},
		{name: "worker missing key", in: `{"length": 3, "workers": [{"active": true, "start": 0, "limit": 3}]}`},
		{name: "worker wrong type", in: `{"length": 3, "workers": [{"active": "yes", "start": 0, "limit": 3, "current": 0}]}`},
		{name: "not tiled", in: `{"length": 3, "workers": [{"active": true, "start": 0, "limit": 2, "current": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot(strings.NewReader(tt.in), FormatJSON)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestDecodeSnapshot_InvalidYAML(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ``},
		{name: "malformed", in: "length: [\n"},
		{name: "unknown key", in: "length: 3\nworkers: []\ncomplete: false\n"},
		{name: "negative length", in: "length: -1\n"},
		{name: "not tiled", in: "length: 3\nworkers:\n  - {active: true, start: 1, limit: 3, current: 1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot(strings.NewReader(tt.in), FormatYAML)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}
