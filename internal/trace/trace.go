// Package trace renders tick results as the per-tick trace.
package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/me/ossim/pkg/model"
)

// Format selects how ticks are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown trace format %q (want text or json)", s)
}

// Line renders one tick in the text trace format:
//
//	<time right-aligned in 5>\t[<tag>]\t<id>:<state>:<processorTime> ...
func Line(res model.TickResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%5d\t[%s]\t", res.Time, res.Action.Tag())
	b.WriteString(States(res.Processes))
	return b.String()
}

// States renders the process snapshot part of a trace line.
func States(procs []model.ProcessSnapshot) string {
	parts := make([]string, len(procs))
	for i, p := range procs {
		parts[i] = fmt.Sprintf("%d:%s:%d", p.ID, p.State, p.ProcessorTime)
	}
	return strings.Join(parts, " ")
}

// Writer writes one trace record per tick.
type Writer struct {
	w      io.Writer
	format Format
	enc    *json.Encoder
}

// NewWriter returns a trace Writer emitting format to w.
func NewWriter(w io.Writer, format Format) *Writer {
	tw := &Writer{w: w, format: format}
	if format == FormatJSON {
		tw.enc = json.NewEncoder(w)
	}
	return tw
}

// Tick writes res.
func (t *Writer) Tick(_ context.Context, res model.TickResult) error {
	if t.format == FormatJSON {
		return t.enc.Encode(jsonTick{
			Time:      res.Time,
			Action:    res.Action,
			Tag:       strings.TrimSpace(res.Action.Tag()),
			ProcessID: res.ProcessID,
			Processes: res.Processes,
		})
	}
	_, err := fmt.Fprintln(t.w, Line(res))
	return err
}

type jsonTick struct {
	Time      int                     `json:"time"`
	Action    model.Action            `json:"action"`
	Tag       string                  `json:"tag"`
	ProcessID int                     `json:"process_id"`
	Processes []model.ProcessSnapshot `json:"processes"`
}

// Collector keeps every rendered text line in memory.
type Collector struct {
	Lines []string
}

// Tick appends the rendered line for res.
func (c *Collector) Tick(_ context.Context, res model.TickResult) error {
	c.Lines = append(c.Lines, Line(res))
	return nil
}
