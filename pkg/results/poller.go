// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package results

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/confighub/sourcesense/pkg/workflows"
)

// DefaultDelay is the countdown before the first fetch after a launch.
const DefaultDelay = 20

// DefaultPollInterval separates retries after a failed fetch.
const DefaultPollInterval = 5 * time.Second

// Phase of the poller.
type Phase int

const (
	Idle Phase = iota
	Countdown
	Fetching
	Ready
	NotReady
)

func (p Phase) String() string {
	switch p {
	case Countdown:
		return "countdown"
	case Fetching:
		return "fetching"
	case Ready:
		return "ready"
	case NotReady:
		return "not ready"
	default:
		return "idle"
	}
}

// Messages carry the generation that scheduled them. Anything from an
// older generation is dropped, which is how a restart cancels pending
// timers and superseded fetches.
type (
	countdownTickMsg struct{ gen int }
	pollTickMsg      struct{ gen int }

	// FetchedMsg reports the outcome of one fetch.
	FetchedMsg struct {
		gen    int
		Result *Result
		Err    error
	}
)

// Poller is the results state machine, driven by a Bubble Tea program.
// All methods must be called from the program's Update.
type Poller struct {
	fetcher  *Fetcher
	interval time.Duration
	timeout  time.Duration

	gen       int
	cancel    context.CancelFunc
	phase     Phase
	remaining int
	polling   bool
	inFlight  bool
	result    *Result
	err       error
}

// NewPoller returns an idle poller. interval <= 0 uses DefaultPollInterval.
func NewPoller(f *Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{fetcher: f, interval: interval, timeout: workflows.DefaultTimeout * 3}
}

func (p *Poller) Phase() Phase { return p.phase }
func (p *Poller) Remaining() int { return p.remaining }
func (p *Poller) Polling() bool { return p.polling }
func (p *Poller) Result() *Result { return p.result }
func (p *Poller) Err() error { return p.err }
func (p *Poller) Interval() time.Duration { return p.interval }

// ViewMode is the stored view mode.
func (p *Poller) ViewMode() workflows.ViewMode {
	return p.fetcher.Store().ViewMode()
}

// WorkflowID is the run the poller is working on.
func (p *Poller) WorkflowID() string {
	if p.result != nil {
		return p.result.WorkflowID
	}
	return p.fetcher.Store().WorkflowID()
}

// Start cancels everything pending and begins again: a countdown of delay
// seconds, or an immediate fetch when delay <= 0.
func (p *Poller) Start(delay int) tea.Cmd {
	p.reset()
	if delay > 0 {
		p.phase = Countdown
		p.remaining = delay
		return p.countdownTick()
	}
	return p.fetch(Fetching)
}

// Reload fetches now.
func (p *Poller) Reload() tea.Cmd {
	return p.Start(0)
}

// SetViewMode stores m and fetches again in that mode.
func (p *Poller) SetViewMode(m workflows.ViewMode) tea.Cmd {
	if err := p.fetcher.Store().SetViewMode(m); err != nil {
		p.fetcher.logf("Saving preferences failed: %v", err)
	}
	return p.Start(0)
}

// ToggleViewMode switches between JSON and text.
func (p *Poller) ToggleViewMode() tea.Cmd {
	return p.SetViewMode(p.ViewMode().Toggle())
}

// Stop cancels everything pending and goes idle.
func (p *Poller) Stop() {
	p.reset()
	p.phase = Idle
}

func (p *Poller) reset() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.remaining = 0
	p.polling = false
	p.inFlight = false
	p.result = nil
	p.err = nil
}

// Update handles the poller's own messages and ignores everything else.
func (p *Poller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case countdownTickMsg:
		if msg.gen != p.gen || p.phase != Countdown {
			return nil
		}
		p.remaining--
		if p.remaining <= 0 {
			p.remaining = 0
			return p.fetch(Fetching)
		}
		return p.countdownTick()

	case pollTickMsg:
		if msg.gen != p.gen || !p.polling || p.inFlight {
			return nil
		}
		// Keep showing the not-ready message while retrying.
		return p.fetch(NotReady)

	case FetchedMsg:
		if msg.gen != p.gen {
			return nil
		}
		p.inFlight = false
		p.cancel = nil
		if msg.Err != nil {
			p.phase = NotReady
			p.err = msg.Err
			p.polling = true
			return p.pollTick()
		}
		p.phase = Ready
		p.result = msg.Result
		p.err = nil
		p.polling = false
		return nil
	}
	return nil
}

func (p *Poller) fetch(phase Phase) tea.Cmd {
	p.phase = phase
	p.inFlight = true
	gen := p.gen
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	p.cancel = cancel
	f := p.fetcher
	return func() tea.Msg {
		defer cancel()
		r, err := f.Fetch(ctx)
		return FetchedMsg{gen: gen, Result: r, Err: err}
	}
}

func (p *Poller) countdownTick() tea.Cmd {
	gen := p.gen
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{gen: gen}
	})
}

func (p *Poller) pollTick() tea.Cmd {
	gen := p.gen
	return tea.Tick(p.interval, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}
