package parser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/ossim/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func testParser() *Parser {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParse_Text(t *testing.T) {
	data := []byte(`# arrival required [offset duration]...
1 5 2 2

3 4   # trailing comment
0 6 1 0 4 3
`)
	procs, err := testParser().Parse(data, "procList.txt")
	require.NoError(t, err)
	require.Len(t, procs, 3)

	assert.Equal(t, 0, procs[0].ID)
	assert.Equal(t, 1, procs[0].ArrivalTime)
	assert.Equal(t, 5, procs[0].RequiredTime)
	assert.Equal(t, []model.IOEvent{{Offset: 2, Duration: 2}}, procs[0].IOEvents)
	assert.Equal(t, model.ProcessStateNewArrival, procs[0].State)

	assert.Equal(t, 1, procs[1].ID)
	assert.Empty(t, procs[1].IOEvents)

	assert.Equal(t, 2, procs[2].ID)
	assert.Equal(t, []model.IOEvent{{Offset: 1, Duration: 0}, {Offset: 4, Duration: 3}}, procs[2].IOEvents)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`processes:
  - id: 10
    arrival: 2
    required: 5
    io:
      - {offset: 2, duration: 3}
  - arrival: 4
    required: 1
`)
	procs, err := testParser().Parse(data, "inline")
	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, 10, procs[0].ID)
	assert.Equal(t, []model.IOEvent{{Offset: 2, Duration: 3}}, procs[0].IOEvents)
	assert.Equal(t, 1, procs[1].ID, "missing id defaults to the list index")
}

func TestParse_Empty(t *testing.T) {
	procs, err := testParser().Parse([]byte("# nothing\n\n"), "empty.txt")
	require.NoError(t, err)
	assert.Empty(t, procs)
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"single field", "4\n", "line 1: expected arrival and required time"},
		{"odd io", "1 5 2\n", "line 1: I/O events need an offset and a duration"},
		{"not a number", "1 5\n1 x\n", `line 2: field 2: "x" is not an integer`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testParser().Parse([]byte(tt.data), "bad.txt")
			var cfgErr *model.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_YAMLSyntaxError(t *testing.T) {
	_, err := testParser().Parse([]byte("processes: [\n"), "bad.yaml")
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "YAML parse error")
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"zero required", "1 0\n", "line 1: required: must be at least 1"},
		{"negative arrival", "-1 3\n", "line 1: arrival: must not be negative"},
		{"offset zero", "1 3 0 1\n", "io[0]: offset 0 must be greater than 0"},
		{"offset at end", "1 3 3 1\n", "io[0]: offset 3 must be less than required time 3"},
		{"offsets not increasing", "1 6 3 1 3 1\n", "io[1]: offset 3 must be greater than 3"},
		{"negative duration", "1 6 3 -2\n", "io[0]: duration must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testParser().Parse([]byte(tt.data), "bad.txt")
			var cfgErr *model.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			require.NotEmpty(t, cfgErr.Details)
			assert.Contains(t, cfgErr.Details[0].Error(), tt.want)
		})
	}
}

func TestParse_YAMLDuplicateIDs(t *testing.T) {
	data := []byte("processes:\n  - {id: 1, arrival: 0, required: 1}\n  - {id: 1, arrival: 0, required: 2}\n")
	_, err := testParser().Parse(data, "dup.yml")
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Len(t, cfgErr.Details, 1)
	assert.Equal(t, "processes[1].id", cfgErr.Details[0].Field)
}

func TestParse_YAMLNegativeID(t *testing.T) {
	data := []byte("processes:\n  - {id: -1, arrival: 1, required: 2}\n")
	procs, err := testParser().Parse(data, "neg.yaml")
	assert.Nil(t, procs)
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Len(t, cfgErr.Details, 1)
	assert.Equal(t, "processes[0].id", cfgErr.Details[0].Field)
	assert.Contains(t, cfgErr.Details[0].Message, "must not be negative")
}

func TestLoad_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procList.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 3\n2 2 1 1\n"), 0o644))

	procs, err := testParser().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, 2, procs[1].ArrivalTime)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := testParser().Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "nope.txt")
}

func TestLoad_MemURL(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/ossim/procs.yaml"
	doc := "processes:\n  - id: 7\n    arrival: 2\n    required: 3\n    io:\n      - {offset: 1, duration: 4}\n"
	require.NoError(t, fs.Upload(ctx, URL, 0o644, strings.NewReader(doc)))
	t.Cleanup(func() { _ = fs.Delete(ctx, URL) })

	p := NewWithFS(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	procs, err := p.Load(ctx, URL)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, 7, procs[0].ID)
	assert.Equal(t, []model.IOEvent{{Offset: 1, Duration: 4}}, procs[0].IOEvents)
}
