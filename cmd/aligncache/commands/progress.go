package commands

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/haivivi/aligner/pkg/aligndata"
)

var phaseNames = map[string]string{
	aligndata.PhaseExtract: "Extracting: ",
	aligndata.PhaseEmbed:   "Embedding:  ",
	aligndata.PhaseWrite:   "Writing:    ",
}

// barProgress renders one progress bar per build phase.
type barProgress struct {
	p *mpb.Progress

	mu   sync.Mutex
	bars map[string]*mpb.Bar
}

func newBarProgress(w io.Writer) *barProgress {
	return &barProgress{
		p:    mpb.New(mpb.WithWidth(64), mpb.WithOutput(w)),
		bars: make(map[string]*mpb.Bar),
	}
}

func (b *barProgress) Start(phase string, total int) {
	bar := b.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(phaseNames[phase]),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)
	b.mu.Lock()
	b.bars[phase] = bar
	b.mu.Unlock()
}

func (b *barProgress) Increment(phase string) {
	b.mu.Lock()
	bar := b.bars[phase]
	b.mu.Unlock()
	if bar != nil {
		bar.Increment()
	}
}

func (b *barProgress) Done(phase string) {
	b.mu.Lock()
	bar := b.bars[phase]
	delete(b.bars, phase)
	b.mu.Unlock()
	if bar != nil {
		// Items of a failed worker never reach the total.
		bar.SetTotal(-1, true)
	}
}

// Wait flushes the bars. It must be called once the build returned.
func (b *barProgress) Wait() {
	b.mu.Lock()
	for phase, bar := range b.bars {
		bar.Abort(false)
		delete(b.bars, phase)
	}
	b.mu.Unlock()
	b.p.Wait()
}
