// Package monitor wires the feed, gate, router, player model and
// outbound queues into the consumer loop.
//
// The loop is the single writer for all player state: game lines,
// injected commands, and admin kick requests all arrive through the
// feed and are dispatched here, one at a time, in order.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tfwatch/tfwatch/internal/conlog"
	"github.com/tfwatch/tfwatch/internal/player"
	"github.com/tfwatch/tfwatch/internal/rules"
	"github.com/tfwatch/tfwatch/internal/script"
	"github.com/tfwatch/tfwatch/internal/step"
	"github.com/tfwatch/tfwatch/internal/store"
)

// Commander sends one command to the game server. Disabled reports a
// transport that has given up for the session, telling the monitor to
// route queued commands through the script file instead.
// *rconout.Sender implements it.
type Commander interface {
	Execute(cmd string) (string, error)
	Disabled() bool
}

// Deps are the collaborators the monitor is constructed with. All are
// required except Rcon and UI.
type Deps struct {
	Feed   *conlog.Feed
	Gate   *step.Gate
	Router *rules.Router
	Users  *player.Users
	Kicks  *script.Queue
	Spams  *script.Queue
	Writer *script.Writer

	// Rcon, when set, replaces the script file as the outbound
	// transport: queued commands are sent directly to the server.
	Rcon Commander

	UI UI
}

// Monitor runs the consumer loop.
type Monitor struct {
	feed   *conlog.Feed
	gate   *step.Gate
	router *rules.Router
	users  *player.Users
	kicks  *script.Queue
	spams  *script.Queue
	writer *script.Writer
	rcon   Commander
	ui     UI

	ctx      context.Context
	lastText string
}

// New creates a monitor and registers the gameplay and keybind rules
// on the router.
func New(deps Deps) *Monitor {
	m := &Monitor{
		feed:   deps.Feed,
		gate:   deps.Gate,
		router: deps.Router,
		users:  deps.Users,
		kicks:  deps.Kicks,
		spams:  deps.Spams,
		writer: deps.Writer,
		rcon:   deps.Rcon,
		ui:     deps.UI,
		ctx:    context.Background(),
	}
	if m.ui == nil {
		m.ui = SlogUI{}
	}
	m.registerGameRules()
	m.registerKeybindRules()
	return m
}

// Run drives readline → gate → dispatch → publish → render until the
// feed is exhausted or the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.ctx = ctx
	slog.Info("monitor starting")

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("monitor stopping: context cancelled")
			return err
		}

		line, err := m.feed.ReadLine()
		if errors.Is(err, io.EOF) {
			slog.Info("end of console log")
			return nil
		}
		if err != nil {
			return fmt.Errorf("monitor: %w", err)
		}

		m.gate.BeforeDispatch(line.Text)

		if !m.router.DispatchGame(line.Text) {
			slog.Debug("ignored line", "line", line.LineNo, "origin", line.Origin.String(), "text", line.Text)
		}
		m.lastText = line.Text

		m.publish()
		m.ui.Render(m.frame())
	}
}

// publish flushes the outbound queues: over rcon when configured and
// alive, otherwise by regenerating the script file for the game to
// exec. Once the sender disables itself, queued commands fall through
// to the script file unsent and unlost.
func (m *Monitor) publish() {
	if m.rcon != nil && !m.rcon.Disabled() {
		m.flushRcon(m.kicks)
		m.flushRcon(m.spams)
		if !m.rcon.Disabled() {
			return
		}
	}
	if err := m.writer.Commit(); err != nil {
		slog.Error("script commit failed", "error", err)
	}
}

// flushRcon sends queued commands head-first. A command is removed
// only after the server accepts it; a failed send leaves it queued.
func (m *Monitor) flushRcon(q *script.Queue) {
	for {
		cmd, ok := q.Head()
		if !ok {
			return
		}
		if _, err := m.rcon.Execute(cmd); err != nil {
			slog.Error("rcon send failed, command stays queued", "command", cmd, "error", err)
			return
		}
		q.PopLeft()
		slog.Info("rcon sent", "command", cmd)
	}
}

func (m *Monitor) frame() Frame {
	return Frame{
		LineNo:   m.feed.LineNo(),
		Map:      m.users.MapName(),
		Users:    m.users.Len(),
		Stepping: m.gate.Stepping(),
		Kicks:    m.kicks.Len(),
		Spams:    m.spams.Len(),
		LastLine: m.lastText,
	}
}

// Dump logs a snapshot of internal state, for the admin "dump"
// command.
func (m *Monitor) Dump() {
	slog.Info("dump",
		"line", m.feed.LineNo(),
		"map", m.users.MapName(),
		"users", m.users.Len(),
		"stepping", m.gate.Stepping(),
		"kicks", m.kicks.Len(),
		"spams", m.spams.Len(),
	)
	for _, u := range m.users.All() {
		slog.Info("dump user",
			"key", u.Key(),
			"steamid", u.SteamID,
			"team", u.Team.String(),
			"kills", u.NKills,
			"deaths", u.NDeaths,
			"kd", u.KDRatio(),
		)
	}
}

// KickByID is the admin-console kick hook. It runs on the operator
// goroutine, so rather than touching the player model it injects a
// tagged command that the consumer loop dispatches like any other
// line, preserving the single-writer discipline.
func (m *Monitor) KickByID(userid int, attr store.Attr) {
	m.feed.Inject(m.feed.LineNo()+1, fmt.Sprintf("KICK-%s-%d", strings.ToUpper(string(attr)), userid))
}

// Notify forwards an operator-attention message to the UI.
func (m *Monitor) Notify(msg string) {
	m.ui.Notify(msg)
}
