// Package step implements the operator-controlled single-stepping gate
// between the console-log feed and the event router.
//
// The gate has two states. Running leaves the gate open and lines flow
// freely. Stepping closes the gate after every line, so the consumer
// processes exactly one line per operator release.
//
// Arming methods are called from the operator goroutine; BeforeDispatch
// runs on the consumer goroutine. The wait is intentionally unbounded:
// there is no timeout, cancellation is process shutdown.
package step

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// Injector schedules a synthetic command ahead of a target line.
// Satisfied by conlog.Feed.
type Injector interface {
	Inject(lineno int, command string)
}

// BreakCommand is the tagged command injected by ArmLineBreakpoint and
// recognized by the monitor to start stepping when it comes back
// through the stream.
const BreakCommand = "BREAK"

// Gate pauses the consumer goroutine per line under operator control.
type Gate struct {
	injector Injector

	mu       sync.Mutex
	cond     *sync.Cond
	open     bool
	stepping bool
	pattern  *regexp.Regexp
}

// NewGate creates a gate. With singleStep true the gate starts closed
// in stepping mode, pausing before the first line.
func NewGate(injector Injector, singleStep bool) *Gate {
	g := &Gate{
		injector: injector,
		open:     !singleStep,
		stepping: singleStep,
	}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// StartStepping closes the gate after each line until released.
func (g *Gate) StartStepping() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stepping = true
	g.open = false
	slog.Info("single-stepping")
}

// StopStepping opens the gate and lets lines flow freely.
func (g *Gate) StopStepping() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stepping = false
	g.open = true
	g.cond.Broadcast()
}

// Step releases exactly one line while remaining in stepping mode.
// BeforeDispatch re-closes the gate after waking.
func (g *Gate) Step() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = true
	g.cond.Broadcast()
}

// Stepping reports whether the gate is in stepping mode.
func (g *Gate) Stepping() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stepping
}

// ArmLineBreakpoint schedules stepping to begin at line n by injecting
// a break command ahead of it. n == 0 means run to end-of-file: the
// gate is released now and nothing re-arms stepping automatically.
func (g *Gate) ArmLineBreakpoint(n int) {
	if n > 0 {
		g.injector.Inject(n, BreakCommand)
		slog.Info("breakpoint armed", "line", n)
	}
	g.StopStepping()
}

// ArmPatternBreakpoint compiles and stores a search pattern that starts
// stepping when a line matches it. A trailing "/i" makes the match
// case-insensitive; a trailing bare "/" is stripped. An empty
// expression clears the stored pattern.
func (g *Gate) ArmPatternBreakpoint(expr string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if expr == "" {
		g.pattern = nil
		slog.Info("search pattern cleared")
		return nil
	}

	if strings.HasSuffix(expr, "/i") {
		expr = "(?i)" + strings.TrimSuffix(expr, "/i")
	} else {
		expr = strings.TrimSuffix(expr, "/")
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("search pattern %q: %w", expr, err)
	}
	g.pattern = re
	slog.Info("search pattern armed", "pattern", expr)
	return nil
}

// Pattern returns the armed search pattern, or nil.
func (g *Gate) Pattern() *regexp.Regexp {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pattern
}

// BeforeDispatch is called by the consumer goroutine before each line
// is handed to the router. A search-pattern hit starts stepping; then
// the call blocks until the gate is open. In stepping mode the gate
// re-closes on wake so each release services exactly one line.
//
// May block indefinitely; this is the sole suspension point tied to
// operator pacing.
func (g *Gate) BeforeDispatch(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.stepping && g.pattern != nil && g.pattern.MatchString(text) {
		slog.Info("search pattern matched", "text", text)
		g.stepping = true
		g.open = false
	}

	for !g.open {
		g.cond.Wait()
	}

	if g.stepping {
		g.open = false
	}
}
