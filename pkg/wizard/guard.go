// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package wizard holds the step navigation rules of the setup wizard.
// It does no I/O: callers run the connection test and report the outcome
// through SetAuthenticated.
package wizard

import (
	"errors"
	"strings"
)

// Step is a wizard page, 1 through 4.
type Step int

const (
	StepConnect Step = iota + 1
	StepName
	StepSelectMetadata
	StepResults
)

// FirstStep and LastStep bound the valid range.
const (
	FirstStep = StepConnect
	LastStep  = StepResults
)

var stepTitles = map[Step]string{
	StepConnect:        "Connect",
	StepName:           "Name Connection",
	StepSelectMetadata: "Select Metadata",
	StepResults:        "Results",
}

func (s Step) String() string {
	if t, ok := stepTitles[s]; ok {
		return t
	}
	return "Unknown"
}

// Valid reports whether s is one of the four steps.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

var (
	ErrNotAuthenticated       = errors.New("connection has not been tested successfully")
	ErrConnectionNameRequired = errors.New("connection name is required")
	ErrNoForwardStep          = errors.New("no next step from here")
)

// State of a step indicator.
type State int

const (
	Pending State = iota
	Active
	Completed
)

// Indicator is the sidebar entry for one step.
type Indicator struct {
	Step  Step
	State State
}

// Guard tracks the current step and the authenticated flag.
type Guard struct {
	current       Step
	authenticated bool
	resultsDone   bool
}

// NewGuard starts on step 1, unauthenticated.
func NewGuard() *Guard {
	return &Guard{current: StepConnect}
}

func (g *Guard) Current() Step {
	return g.current
}

func (g *Guard) Authenticated() bool {
	return g.authenticated
}

// SetAuthenticated records the outcome of the last connection test.
func (g *Guard) SetAuthenticated(ok bool) {
	g.authenticated = ok
}

// GoTo moves to n and reports whether it did. Out-of-range steps and
// steps 2-3 without authentication are ignored. Step 4 is always
// reachable so results can be discovered without a fresh login.
func (g *Guard) GoTo(n Step) bool {
	if !n.Valid() {
		return false
	}
	if n > StepConnect && n != StepResults && !g.authenticated {
		return false
	}
	g.current = n
	return true
}

// Advance moves forward one step from 1 or 2.
func (g *Guard) Advance(connectionName string) error {
	switch g.current {
	case StepConnect:
		if !g.authenticated {
			return ErrNotAuthenticated
		}
	case StepName:
		if strings.TrimSpace(connectionName) == "" {
			return ErrConnectionNameRequired
		}
	default:
		return ErrNoForwardStep
	}
	g.GoTo(g.current + 1)
	return nil
}

// Back moves to the previous step, subject to the same rules as GoTo.
func (g *Guard) Back() bool {
	return g.GoTo(g.current - 1)
}

// MarkResultsAvailable shows step 4 as completed while it is not active.
// Used on start-up when a previous run exists.
func (g *Guard) MarkResultsAvailable() {
	g.resultsDone = true
}

// Indicators returns one entry per step: the current one Active, lower
// ones Completed, the rest Pending.
func (g *Guard) Indicators() []Indicator {
	out := make([]Indicator, 0, int(LastStep))
	for s := FirstStep; s <= LastStep; s++ {
		state := Pending
		switch {
		case s == g.current:
			state = Active
		case s < g.current:
			state = Completed
		case s == StepResults && g.resultsDone:
			state = Completed
		}
		out = append(out, Indicator{Step: s, State: state})
	}
	return out
}
