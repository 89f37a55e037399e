package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/me/ossim/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() model.TickResult {
	return model.TickResult{
		Time:      12,
		Action:    model.ActionIORequest,
		ProcessID: 0,
		Processes: []model.ProcessSnapshot{
			{ID: 0, State: model.ProcessStateBlocked, ProcessorTime: 2},
			{ID: 1, State: model.ProcessStateReady, ProcessorTime: 0},
		},
	}
}

func TestLine(t *testing.T) {
	assert.Equal(t, "   12\t[  ioReq]\t0:blocked:2 1:ready:0", Line(sample()))

	idle := model.TickResult{Time: 3, Action: model.ActionNoAct, ProcessID: model.NoProcess}
	assert.Equal(t, "    3\t[*noAct*]\t", Line(idle))

	wide := model.TickResult{Time: 123456, Action: model.ActionContinueRun}
	assert.True(t, strings.HasPrefix(Line(wide), "123456\t[contRun]"))
}

func TestWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatText)
	require.NoError(t, w.Tick(context.Background(), sample()))
	require.NoError(t, w.Tick(context.Background(), model.TickResult{Time: 13, Action: model.ActionAdmitNewProc}))
	assert.Equal(t, "   12\t[  ioReq]\t0:blocked:2 1:ready:0\n   13\t[  admit]\t\n", buf.String())
}

func TestWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON)
	require.NoError(t, w.Tick(context.Background(), sample()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "ioReq", got["tag"])
	assert.Equal(t, "ioRequest", got["action"])
	assert.EqualValues(t, 12, got["time"])
	assert.Len(t, got["processes"], 2)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestCollector(t *testing.T) {
	c := &Collector{}
	require.NoError(t, c.Tick(context.Background(), sample()))
	assert.Equal(t, []string{"   12\t[  ioReq]\t0:blocked:2 1:ready:0"}, c.Lines)
}
