package cmd

import (
	"io"

	"github.com/pterm/pterm"
)

// progressBar adapts a pterm progress bar to app.Progress. It draws on the
// given writer (stderr) so piped stdout stays clean.
type progressBar struct {
	w   io.Writer
	bar *pterm.ProgressbarPrinter
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

func (p *progressBar) Start(total int) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("Scanning").
		WithWriter(p.w).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return
	}
	p.bar = bar
}

func (p *progressBar) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progressBar) Stop() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}
