package monitor

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/tfwatch/tfwatch/internal/game"
	"github.com/tfwatch/tfwatch/internal/rules"
	"github.com/tfwatch/tfwatch/internal/script"
	"github.com/tfwatch/tfwatch/internal/step"
	"github.com/tfwatch/tfwatch/internal/store"
)

// registerGameRules installs the gameplay rule list. Order is
// load-bearing: tagged echoes are most specific and go first; the chat
// pattern must precede the kill and connected patterns because player
// names and chat text can mimic them; the new-game boundary goes last.
func (m *Monitor) registerGameRules() {
	m.router.RegisterGame(
		rules.Rule{
			Name:    "break",
			Pattern: game.Tagged(step.BreakCommand),
			Handle: func(*rules.Match) {
				m.gate.StartStepping()
			},
		},
		rules.Rule{
			Name:    "queue-ack",
			Pattern: game.Tagged(`(?P<queue>KICKS|SPAMS)-(?P<op>POPLEFT|POP)`),
			Handle:  m.handleQueueAck,
		},
		rules.Rule{
			Name:    "kick-by-id",
			Pattern: game.Tagged(`KICK-(?P<attr>[A-Z]+)-(?P<id>\d+)`),
			Handle:  m.handleInjectedKick,
		},
		rules.Rule{
			Name:    "status-header",
			Pattern: game.PatternStatusHeader,
			Handle: func(*rules.Match) {
				m.users.AgeCycle()
			},
		},
		rules.Rule{
			Name:    "status",
			Pattern: game.PatternStatus,
			Handle:  m.handleStatus,
		},
		rules.Rule{
			Name:    "lobby",
			Pattern: game.PatternLobby,
			Handle: func(match *rules.Match) {
				m.users.Lobby(match.Named("steamid"), match.Named("team"))
			},
		},
		rules.Rule{
			Name:    "chat",
			Pattern: game.PatternChat,
			Handle: func(match *rules.Match) {
				m.users.Chat(match.Named("name"), match.Named("msg"))
			},
		},
		rules.Rule{
			Name:    "kill",
			Pattern: game.PatternKill,
			Handle: func(match *rules.Match) {
				m.users.Kill(
					match.Named("killer"),
					match.Named("victim"),
					match.Named("weapon"),
					match.Named("crit") != "",
				)
			},
		},
		rules.Rule{
			Name:    "suicide",
			Pattern: game.PatternSuicide,
			Handle: func(match *rules.Match) {
				m.users.Suicide(match.Named("name"))
			},
		},
		rules.Rule{
			Name:    "capture",
			Pattern: game.PatternCapture,
			Handle: func(match *rules.Match) {
				u := m.users.Get(match.Named("name"))
				u.NCaptures++
			},
		},
		rules.Rule{
			Name:    "connected",
			Pattern: game.PatternConnected,
			Handle: func(match *rules.Match) {
				m.users.Get(match.Named("name"))
			},
		},
		rules.Rule{
			Name:    "new-game",
			Pattern: game.PatternNewGame,
			Handle: func(match *rules.Match) {
				m.users.NewGame(match.Named("map"))
			},
		},
	)
}

// registerKeybindRules installs the rules for echoes produced by
// in-game keypresses.
func (m *Monitor) registerKeybindRules() {
	m.router.RegisterKeybind(
		rules.Rule{
			Name:    "taunts-toggle",
			Pattern: game.Tagged(`TAUNTS-TOGGLE`),
			Handle: func(*rules.Match) {
				slog.Info("taunts toggled", "on", m.users.ToggleTaunts())
			},
		},
		rules.Rule{
			Name:    "throes-toggle",
			Pattern: game.Tagged(`THROES-TOGGLE`),
			Handle: func(*rules.Match) {
				slog.Info("throes toggled", "on", m.users.ToggleThroes())
			},
		},
		rules.Rule{
			Name:    "clear-queues",
			Pattern: game.Tagged(`CLEAR-QUEUES`),
			Handle: func(*rules.Match) {
				m.kicks.Clear()
				m.spams.Clear()
				slog.Info("queues cleared")
			},
		},
		rules.Rule{
			Name:    "dump-key",
			Pattern: game.Tagged(`DUMP`),
			Handle: func(*rules.Match) {
				m.Dump()
			},
		},
	)
}

func (m *Monitor) handleStatus(match *rules.Match) {
	userid, err := strconv.Atoi(match.Named("userid"))
	if err != nil {
		slog.Error("bad userid in status line", "text", match.Text)
		return
	}
	ping, err := strconv.Atoi(match.Named("ping"))
	if err != nil {
		ping = 0
	}
	m.users.Status(m.ctx, userid, match.Named("name"), match.Named("steamid"), match.Named("elapsed"), ping)
}

func (m *Monitor) handleQueueAck(match *rules.Match) {
	var q *script.Queue
	switch match.Named("queue") {
	case "KICKS":
		q = m.kicks
	case "SPAMS":
		q = m.spams
	default:
		return
	}

	fromLeft := match.Named("op") == "POPLEFT"
	var cmd string
	var ok bool
	if fromLeft {
		cmd, ok = q.PopLeft()
	} else {
		cmd, ok = q.Pop()
	}
	if !ok {
		slog.Warn("ack for empty queue", "queue", q.Name(), "op", match.Named("op"))
		return
	}
	slog.Info("queue popped", "queue", q.Name(), "op", match.Named("op"), "command", cmd)
}

func (m *Monitor) handleInjectedKick(match *rules.Match) {
	userid, err := strconv.Atoi(match.Named("id"))
	if err != nil {
		slog.Error("bad injected kick", "text", match.Text)
		return
	}
	attr := store.Attr(strings.ToLower(match.Named("attr")))
	switch attr {
	case store.AttrCheater, store.AttrRacist, store.AttrSuspect, store.AttrExploiter:
		m.users.KickByUserID(userid, attr)
	default:
		slog.Error("bad injected kick attr", "attr", match.Named("attr"))
	}
}
