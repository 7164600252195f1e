// Package admin runs the operator console: a line-buffered prompt on
// its own goroutine whose commands are dispatched through the router's
// admin rule list.
//
// State-mutating commands (kick by id) do not touch the player model
// directly; they are handed to the monitor, which injects them into
// the feed so they execute on the consumer goroutine with the same
// single-writer discipline as game lines.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tfwatch/tfwatch/internal/rules"
	"github.com/tfwatch/tfwatch/internal/step"
	"github.com/tfwatch/tfwatch/internal/store"
)

// Hooks are the monitor capabilities the console drives.
type Hooks struct {
	// Dump logs a snapshot of internal state.
	Dump func()

	// Kick flags a user by in-session id, routed onto the consumer
	// goroutine by the monitor.
	Kick func(userid int, attr store.Attr)
}

// Console owns the operator prompt loop.
type Console struct {
	router *rules.Router
	gate   *step.Gate
	in     io.Reader
	out    io.Writer
}

// New creates a console and registers the admin command grammar on the
// router. Rule order is the grammar's precedence.
func New(router *rules.Router, gate *step.Gate, hooks Hooks, in io.Reader, out io.Writer) *Console {
	c := &Console{router: router, gate: gate, in: in, out: out}

	kick := func(attr store.Attr) func(*rules.Match) {
		return func(m *rules.Match) {
			id, err := strconv.Atoi(m.Group(1))
			if err != nil {
				slog.Error("bad userid", "input", m.Text)
				return
			}
			hooks.Kick(id, attr)
		}
	}

	router.RegisterAdmin(
		rules.Rule{
			Name:    "continue",
			Pattern: regexp.MustCompile(`^(?:c|cont|continue)$`),
			Handle:  func(*rules.Match) { gate.StopStepping() },
		},
		rules.Rule{
			Name:    "run",
			Pattern: regexp.MustCompile(`^(?:r|run|g|go)$`),
			Handle:  func(*rules.Match) { gate.ArmLineBreakpoint(0) },
		},
		rules.Rule{
			Name:    "dump",
			Pattern: regexp.MustCompile(`^dump$`),
			Handle:  func(*rules.Match) { hooks.Dump() },
		},
		rules.Rule{
			Name:    "break",
			Pattern: regexp.MustCompile(`^b(?:reak)?\s+(\d+)$`),
			Handle: func(m *rules.Match) {
				n, err := strconv.Atoi(m.Group(1))
				if err != nil {
					slog.Error("bad breakpoint line", "input", m.Text)
					return
				}
				gate.ArmLineBreakpoint(n)
			},
		},
		rules.Rule{
			Name:    "search",
			Pattern: regexp.MustCompile(`^/(.*)$`),
			Handle: func(m *rules.Match) {
				if err := gate.ArmPatternBreakpoint(m.Group(1)); err != nil {
					fmt.Fprintln(c.out, err)
				}
			},
		},
		rules.Rule{
			Name:    "kick",
			Pattern: regexp.MustCompile(`^kick=(\d+)$`),
			Handle:  kick(store.AttrCheater),
		},
		rules.Rule{
			Name:    "kkk",
			Pattern: regexp.MustCompile(`^kkk=(\d+)$`),
			Handle:  kick(store.AttrRacist),
		},
		rules.Rule{
			Name:    "suspect",
			Pattern: regexp.MustCompile(`^suspect=(\d+)$`),
			Handle:  kick(store.AttrSuspect),
		},
	)

	return c
}

// Run reads operator lines until quit or end-of-input. An empty line
// releases one step; unrecognized input is reported and the loop
// continues. Returning is the cooperative shutdown signal.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		text := strings.TrimSpace(scanner.Text())

		if text == "" {
			c.gate.Step()
			continue
		}

		if isQuit(text) {
			slog.Info("operator quit")
			return nil
		}

		if !c.router.DispatchAdmin(text) {
			fmt.Fprintf(c.out, "bad command: %q\n", text)
			slog.Error("bad admin command", "input", text)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("admin console: %w", err)
	}
	// End-of-input terminates the admin loop like quit.
	slog.Info("admin console closed")
	return nil
}

// isQuit accepts "quit" and any unambiguous prefix of it.
func isQuit(text string) bool {
	return text != "" && strings.HasPrefix("quit", strings.ToLower(text))
}
