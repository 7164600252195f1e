package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfwatch/tfwatch/internal/conlog"
	"github.com/tfwatch/tfwatch/internal/player"
	"github.com/tfwatch/tfwatch/internal/rules"
	"github.com/tfwatch/tfwatch/internal/script"
	"github.com/tfwatch/tfwatch/internal/step"
	"github.com/tfwatch/tfwatch/internal/store"
	"github.com/tfwatch/tfwatch/internal/testutil"
)

type monitorFixture struct {
	mon       *Monitor
	feed      *conlog.Feed
	gate      *step.Gate
	users     *player.Users
	records   *testutil.MemoryRecords
	kicks     *script.Queue
	spams     *script.Queue
	scriptDir string
}

// newMonitor wires a full consumer loop over a replayed log file, the
// way the run command does, minus rcon and with in-memory storage.
func newMonitor(t *testing.T, log string, opts conlog.Options) *monitorFixture {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "console.log")
	require.NoError(t, os.WriteFile(path, []byte(log), 0644))

	opts.Rewind = true
	feed, err := conlog.NewFeed(path, opts)
	require.NoError(t, err)
	require.NoError(t, feed.Open(context.Background()))
	t.Cleanup(func() { feed.Close() })

	fx := &monitorFixture{
		feed:      feed,
		gate:      step.NewGate(feed, false),
		records:   testutil.NewMemoryRecords(),
		kicks:     script.NewQueue("kicks"),
		spams:     script.NewQueue("spams"),
		scriptDir: dir,
	}

	users, err := player.New(player.Config{Session: "test"}, fx.records, testutil.NewScriptedProfiles(), fx.kicks, fx.spams, nil)
	require.NoError(t, err)
	fx.users = users

	fx.mon = New(Deps{
		Feed:   feed,
		Gate:   fx.gate,
		Router: rules.NewRouter(),
		Users:  users,
		Kicks:  fx.kicks,
		Spams:  fx.spams,
		Writer: script.NewWriter(dir, fx.kicks, fx.spams),
	})
	return fx
}

const gameLog = `Map: pl_badwater
SomePlayer connected
# userid name                uniqueid            connected ping loss state
#    746 "SomePlayer"        [U:1:111]           12:05       87    0 active
#    747 "KnownCheater"      [U:1:666]           01:00       50    0 active
  Member[22] [U:1:111]  team = TF_GC_TEAM_DEFENDERS  type = MATCH_PLAYER
SomePlayer killed KnownCheater with scattergun.
KnownCheater killed SomePlayer with sniperrifle. (crit)
*DEAD* SomePlayer :  nice shot
KnownCheater suicided.
SomePlayer captured Second Point for team #2
TFW-KICKS-POPLEFT
`

func TestMonitor_FullGameReplay(t *testing.T) {
	fx := newMonitor(t, gameLog, conlog.Options{})

	require.NoError(t, fx.records.Put(&store.Player{
		SteamID: "U:1:666",
		Attrs:   []store.Attr{store.AttrCheater},
	}))

	require.NoError(t, fx.mon.Run(context.Background()))

	assert.Equal(t, "pl_badwater", fx.users.MapName())
	assert.Equal(t, 2, fx.users.Len())

	sp, ok := fx.users.Lookup("SomePlayer")
	require.True(t, ok)
	assert.Equal(t, 746, sp.UserID)
	assert.Equal(t, "U:1:111", sp.SteamID)
	assert.Equal(t, player.TeamRed, sp.Team, "lobby row assigns the team")
	assert.Equal(t, 1, sp.NKills)
	assert.Equal(t, 1, sp.NDeaths)
	assert.Equal(t, 1, sp.NCaptures)
	assert.Contains(t, sp.Chats, "nice shot")

	kc, ok := fx.users.Lookup("KnownCheater")
	require.True(t, ok)
	assert.Equal(t, player.TeamBlu, kc.Team, "team inferred from killing a RED player")
	assert.Equal(t, 1, kc.NKills)
	assert.Equal(t, 2, kc.NDeaths, "kill death plus suicide")
	assert.Equal(t, 1, kc.NSuicides)

	// The known cheater was voted on during vetting; the trailing
	// TFW-KICKS-POPLEFT echo popped the say half of the pair.
	assert.Equal(t, 1, fx.kicks.Len())
	vote, _ := fx.kicks.Head()
	assert.Equal(t, `callvote kick "747 cheating"`, vote)

	rec, err := fx.records.Get("U:1:666")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.KickCount)
	assert.Contains(t, rec.Names, "KnownCheater")

	// The outbound script was committed with the remaining queue state.
	data, err := os.ReadFile(filepath.Join(fx.scriptDir, script.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "alias tfw_kicks_popleft")
}

func TestMonitor_InjectedKickDispatchedOnConsumerLoop(t *testing.T) {
	fx := newMonitor(t, gameLog, conlog.Options{
		Injections: []conlog.InjectSpec{{LineNo: 7, Command: "KICK-SUSPECT-746"}},
	})

	require.NoError(t, fx.mon.Run(context.Background()))

	rec, err := fx.records.Get("U:1:111")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.HasAttr(store.AttrSuspect))
	assert.Equal(t, 0, rec.KickCount, "suspect does not trigger a vote")
}

func TestMonitor_InjectedBreakStartsStepping(t *testing.T) {
	fx := newMonitor(t, "one line\n", conlog.Options{})
	fx.feed.Inject(2, step.BreakCommand)

	done := make(chan error, 1)
	go func() { done <- fx.mon.Run(context.Background()) }()

	// The break echo arrives after line 1 and flips the gate into
	// stepping; EOF ends the run before anything blocks.
	require.NoError(t, <-done)
	assert.True(t, fx.gate.Stepping())
}

func TestMonitor_KeybindToggles(t *testing.T) {
	log := "TFW-TAUNTS-TOGGLE\nTFW-THROES-TOGGLE\nTFW-CLEAR-QUEUES\n"
	fx := newMonitor(t, log, conlog.Options{})
	fx.spams.PushBack("leftover")

	require.NoError(t, fx.mon.Run(context.Background()))
	assert.Equal(t, 0, fx.spams.Len(), "clear-queues echo empties both queues")
}

func TestMonitor_QueueAckPopsCorrectSide(t *testing.T) {
	log := "TFW-SPAMS-POP\n"
	fx := newMonitor(t, log, conlog.Options{})
	fx.spams.PushBack("first", "last")

	require.NoError(t, fx.mon.Run(context.Background()))

	require.Equal(t, 1, fx.spams.Len())
	head, _ := fx.spams.Head()
	assert.Equal(t, "first", head, "POP removes from the tail")
}

func TestMonitor_KickByIDInjectsTaggedCommand(t *testing.T) {
	fx := newMonitor(t, "filler\n", conlog.Options{})

	fx.mon.KickByID(746, store.AttrSuspect)
	require.NoError(t, fx.mon.Run(context.Background()))

	// No user 746 exists in this log; the handler routes through
	// KickByUserID which reports the unknown id without failing.
	assert.Equal(t, 0, fx.records.Len())
}

// fakeCommander stands in for the rcon sender. With fail set it
// errors on every send and disables itself, like the real sender does
// on an unreachable server.
type fakeCommander struct {
	sent     []string
	fail     bool
	disabled bool
}

func (c *fakeCommander) Execute(cmd string) (string, error) {
	if c.fail {
		c.disabled = true
		return "", errors.New("dial tcp: connection refused")
	}
	c.sent = append(c.sent, cmd)
	return "", nil
}

func (c *fakeCommander) Disabled() bool { return c.disabled }

func TestMonitor_RconSendsInOrderAndDrainsQueues(t *testing.T) {
	fx := newMonitor(t, "filler\n", conlog.Options{})
	rc := &fakeCommander{}
	fx.mon.rcon = rc
	fx.kicks.PushBack("say Bob is a confirmed cheater, voting to kick", `callvote kick "12 cheating"`)
	fx.spams.PushBack("say nice shot Alice")

	require.NoError(t, fx.mon.Run(context.Background()))

	assert.Equal(t, []string{
		"say Bob is a confirmed cheater, voting to kick",
		`callvote kick "12 cheating"`,
		"say nice shot Alice",
	}, rc.sent)
	assert.Equal(t, 0, fx.kicks.Len())
	assert.Equal(t, 0, fx.spams.Len())
	assert.NoFileExists(t, filepath.Join(fx.scriptDir, script.FileName),
		"a healthy rcon transport bypasses the script file")
}

func TestMonitor_RconFailureKeepsCommandsAndFallsBack(t *testing.T) {
	fx := newMonitor(t, "filler\n", conlog.Options{})
	fx.mon.rcon = &fakeCommander{fail: true}
	fx.kicks.PushBack("say Bob is a confirmed cheater, voting to kick", `callvote kick "12 cheating"`)

	require.NoError(t, fx.mon.Run(context.Background()))

	// Nothing was delivered, so nothing may be dropped: both halves of
	// the kick pair stay queued and reach the game via the script file.
	require.Equal(t, 2, fx.kicks.Len())
	head, _ := fx.kicks.Head()
	assert.Equal(t, "say Bob is a confirmed cheater, voting to kick", head)

	data, err := os.ReadFile(filepath.Join(fx.scriptDir, script.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "voting to kick")
	assert.Contains(t, string(data), "callvote kick")
}

func TestMonitor_ContextCancellation(t *testing.T) {
	fx := newMonitor(t, "one\n", conlog.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fx.mon.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
