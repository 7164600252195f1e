package rules

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_FirstMatchWins(t *testing.T) {
	var fired []string
	list := []Rule{
		{
			Name:    "specific",
			Pattern: regexp.MustCompile(`^abc$`),
			Handle:  func(*Match) { fired = append(fired, "specific") },
		},
		{
			Name:    "broad",
			Pattern: regexp.MustCompile(`abc`),
			Handle:  func(*Match) { fired = append(fired, "broad") },
		},
	}

	ok := Dispatch("abc", list)
	require.True(t, ok)
	assert.Equal(t, []string{"specific"}, fired, "only the first matching rule may fire")
}

func TestDispatch_OrderIsRegistrationOrder(t *testing.T) {
	var fired string
	list := []Rule{
		{Name: "a", Pattern: regexp.MustCompile(`x`), Handle: func(*Match) { fired = "a" }},
		{Name: "b", Pattern: regexp.MustCompile(`x`), Handle: func(*Match) { fired = "b" }},
	}

	for i := 0; i < 50; i++ {
		fired = ""
		require.True(t, Dispatch("x", list))
		assert.Equal(t, "a", fired)
	}
}

func TestDispatch_NoMatch(t *testing.T) {
	list := []Rule{
		{Name: "a", Pattern: regexp.MustCompile(`^never$`), Handle: func(*Match) { t.Fatal("must not fire") }},
	}
	assert.False(t, Dispatch("something else", list))
}

func TestMatch_Groups(t *testing.T) {
	var got *Match
	list := []Rule{
		{
			Name:    "kill",
			Pattern: regexp.MustCompile(`^(?P<killer>.+) killed (?P<victim>.+)$`),
			Handle:  func(m *Match) { got = m },
		},
	}

	require.True(t, Dispatch("Alice killed Bob", list))
	require.NotNil(t, got)
	assert.Equal(t, "Alice killed Bob", got.Text)
	assert.Equal(t, "Alice killed Bob", got.Group(0))
	assert.Equal(t, "Alice", got.Group(1))
	assert.Equal(t, "Bob", got.Group(2))
	assert.Equal(t, "Alice", got.Named("killer"))
	assert.Equal(t, "Bob", got.Named("victim"))
	assert.Equal(t, "", got.Named("absent"))
	assert.Equal(t, "", got.Group(99))
	assert.Equal(t, 2, got.NumGroups())
}

func TestRouter_GameBeforeKeybind(t *testing.T) {
	r := NewRouter()

	var fired string
	r.RegisterGame(Rule{
		Name:    "game",
		Pattern: regexp.MustCompile(`shared`),
		Handle:  func(*Match) { fired = "game" },
	})
	r.RegisterKeybind(Rule{
		Name:    "keybind",
		Pattern: regexp.MustCompile(`shared`),
		Handle:  func(*Match) { fired = "keybind" },
	})

	require.True(t, r.DispatchGame("shared"))
	assert.Equal(t, "game", fired, "gameplay rules precede keybind rules")
}

func TestRouter_MergedListRebuiltAfterRegistration(t *testing.T) {
	r := NewRouter()
	r.RegisterGame(Rule{Name: "g", Pattern: regexp.MustCompile(`g`), Handle: func(*Match) {}})

	assert.Len(t, r.GameRules(), 1)

	r.RegisterKeybind(Rule{Name: "k", Pattern: regexp.MustCompile(`k`), Handle: func(*Match) {}})
	assert.Len(t, r.GameRules(), 2)
}

func TestRouter_AdminSeparateFromGame(t *testing.T) {
	r := NewRouter()

	adminFired := false
	r.RegisterAdmin(Rule{
		Name:    "dump",
		Pattern: regexp.MustCompile(`^dump$`),
		Handle:  func(*Match) { adminFired = true },
	})

	assert.False(t, r.DispatchGame("dump"), "admin rules must not fire on game lines")
	assert.True(t, r.DispatchAdmin("dump"))
	assert.True(t, adminFired)
}
