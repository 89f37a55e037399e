// Package stats derives per-process scheduling metrics from the tick stream.
package stats

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/me/ossim/pkg/model"
	"github.com/olekukonko/tablewriter"
)

// Collector is a tick sink accumulating ProcessStats.
type Collector struct {
	order     []int
	byID      map[int]*model.ProcessStats
	ticks     int
	busyTicks int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{byID: make(map[int]*model.ProcessStats)}
}

// Tick folds one tick into the statistics.
func (c *Collector) Tick(_ context.Context, res model.TickResult) error {
	c.ticks++
	if res.Busy() {
		c.busyTicks++
	}

	for _, snap := range res.Processes {
		s, ok := c.byID[snap.ID]
		if !ok {
			s = &model.ProcessStats{ProcessID: snap.ID, ArrivalTick: res.Time}
			c.byID[snap.ID] = s
			c.order = append(c.order, snap.ID)
		}
		switch snap.State {
		case model.ProcessStateNewArrival, model.ProcessStateReady:
			s.WaitTicks++
		case model.ProcessStateBlocked:
			s.BlockedTicks++
		}
	}

	s, ok := c.byID[res.ProcessID]
	if !ok {
		return nil
	}
	if res.Busy() {
		s.RunTicks++
	}
	switch res.Action {
	case model.ActionBeginRun:
		if s.FirstRunTick == 0 {
			s.FirstRunTick = res.Time
		}
	case model.ActionIORequest:
		s.IORequests++
	case model.ActionComplete:
		s.FinishTick = res.Time
	}
	return nil
}

// Stats returns the statistics in activation order.
func (c *Collector) Stats() []model.ProcessStats {
	out := make([]model.ProcessStats, len(c.order))
	for i, id := range c.order {
		out[i] = *c.byID[id]
	}
	return out
}

// Ticks returns the number of ticks observed.
func (c *Collector) Ticks() int { return c.ticks }

// BusyTicks returns the number of ticks in which a process ran.
func (c *Collector) BusyTicks() int { return c.busyTicks }

// Utilization is BusyTicks / Ticks.
func (c *Collector) Utilization() float64 {
	if c.ticks == 0 {
		return 0
	}
	return float64(c.busyTicks) / float64(c.ticks)
}

// Averages returns mean turnaround, response and waiting ticks over finished
// processes.
func Averages(stats []model.ProcessStats) (turnaround, response, wait float64) {
	var n float64
	for _, s := range stats {
		if s.FinishTick == 0 {
			continue
		}
		turnaround += float64(s.Turnaround())
		response += float64(s.ResponseTime())
		wait += float64(s.WaitTicks)
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	return turnaround / n, response / n, wait / n
}

// Render writes stats as a table followed by the processor utilization.
func Render(w io.Writer, stats []model.ProcessStats, ticks, busyTicks int) {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			strconv.Itoa(s.ProcessID),
			strconv.Itoa(s.ArrivalTick),
			strconv.Itoa(s.FirstRunTick),
			strconv.Itoa(s.FinishTick),
			strconv.Itoa(s.Turnaround()),
			strconv.Itoa(s.ResponseTime()),
			strconv.Itoa(s.RunTicks),
			strconv.Itoa(s.WaitTicks),
			strconv.Itoa(s.BlockedTicks),
			strconv.Itoa(s.IORequests),
		})
	}
	turnaround, response, wait := Averages(stats)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PID", "Arrival", "First Run", "Finish", "Turnaround", "Response", "Run", "Wait", "Blocked", "I/O"})
	table.AppendBulk(rows)
	table.SetFooter([]string{"", "", "", "Average",
		fmt.Sprintf("%.2f", turnaround),
		fmt.Sprintf("%.2f", response),
		"",
		fmt.Sprintf("%.2f", wait),
		"", "",
	})
	table.Render()

	util := 0.0
	if ticks > 0 {
		util = 100 * float64(busyTicks) / float64(ticks)
	}
	fmt.Fprintf(w, "ticks: %d  busy: %d  utilization: %.2f%%\n", ticks, busyTicks, util)
}
