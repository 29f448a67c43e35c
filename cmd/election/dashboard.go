package main

import (
	"fmt"

	termbox "github.com/nsf/termbox-go"
)

// dashboard renders a live view of confirmed-vote progress during the demo
// run: one bar per candidate, plus audited/confirmed/cast counters. It is
// a cosmetic addition over the Ballot Engine, not part of its contract.
type dashboard struct {
	enabled    bool
	candidates []string
}

func newDashboard(candidates []string) *dashboard {
	return &dashboard{candidates: candidates}
}

// open initializes the terminal. If termbox can't attach to a terminal
// (e.g. running under a test harness or piped output), the dashboard
// degrades to a no-op rather than failing the run.
func (d *dashboard) open() {
	if err := termbox.Init(); err != nil {
		return
	}
	d.enabled = true
}

func (d *dashboard) close() {
	if d.enabled {
		termbox.Close()
	}
}

// render draws the current tally as a set of horizontal bars scaled to the
// number of confirmed ballots.
func (d *dashboard) render(electionID, questionID string, tallies map[string]int, cast, audited, confirmed int) {
	if !d.enabled {
		return
	}
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	putString(0, 0, fmt.Sprintf("election %s / question %s", electionID, questionID), termbox.ColorWhite|termbox.AttrBold, termbox.ColorDefault)
	putString(0, 1, fmt.Sprintf("cast=%d audited=%d confirmed=%d", cast, audited, confirmed), termbox.ColorCyan, termbox.ColorDefault)

	width, _ := termbox.Size()
	maxBar := width - 24
	if maxBar < 10 {
		maxBar = 10
	}

	row := 3
	for _, name := range d.candidates {
		count := tallies[name]
		barLen := 0
		if confirmed > 0 {
			barLen = count * maxBar / confirmed
		}
		bar := make([]rune, barLen)
		for i := range bar {
			bar[i] = '#'
		}
		label := fmt.Sprintf("%-12s %4d ", name, count)
		putString(0, row, label, termbox.ColorYellow, termbox.ColorDefault)
		putString(len(label), row, string(bar), termbox.ColorGreen, termbox.ColorDefault)
		row++
	}

	_ = termbox.Flush()
}

func putString(x, y int, s string, fg, bg termbox.Attribute) {
	for i, r := range s {
		termbox.SetCell(x+i, y, r, fg, bg)
	}
}
