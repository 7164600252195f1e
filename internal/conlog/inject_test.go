package conlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectionQueue_OrderByTargetLine(t *testing.T) {
	var q injectionQueue

	q.push(Injection{TargetLine: 10, Command: "c"})
	q.push(Injection{TargetLine: 2, Command: "a"})
	q.push(Injection{TargetLine: 5, Command: "b"})

	inj, ok := q.popReady(100, true)
	require.True(t, ok)
	assert.Equal(t, "a", inj.Command)

	inj, ok = q.popReady(100, true)
	require.True(t, ok)
	assert.Equal(t, "b", inj.Command)

	inj, ok = q.popReady(100, true)
	require.True(t, ok)
	assert.Equal(t, "c", inj.Command)
}

func TestInjectionQueue_TiesKeepScheduleOrder(t *testing.T) {
	var q injectionQueue

	q.push(Injection{TargetLine: 5, Command: "first"})
	q.push(Injection{TargetLine: 5, Command: "second"})
	q.push(Injection{TargetLine: 5, Command: "third"})

	for _, want := range []string{"first", "second", "third"} {
		inj, ok := q.popReady(5, true)
		require.True(t, ok)
		assert.Equal(t, want, inj.Command)
	}
}

func TestInjectionQueue_NotReadyBeforeTarget(t *testing.T) {
	var q injectionQueue

	q.push(Injection{TargetLine: 10, Command: "late"})

	_, ok := q.popReady(9, true)
	assert.False(t, ok, "injection should not fire before its target line")

	inj, ok := q.popReady(10, true)
	require.True(t, ok)
	assert.Equal(t, "late", inj.Command)
}

func TestInjectionQueue_LockedBlocksDelivery(t *testing.T) {
	var q injectionQueue

	q.push(Injection{TargetLine: 0, Command: "x"})

	_, ok := q.popReady(5, false)
	assert.False(t, ok, "locked queue should not deliver")
	assert.Equal(t, 1, q.len())

	_, ok = q.popReady(5, true)
	assert.True(t, ok)
	assert.Equal(t, 0, q.len())
}

func TestInjectionQueue_Empty(t *testing.T) {
	var q injectionQueue

	_, ok := q.popReady(100, true)
	assert.False(t, ok)
}

func TestParseInjectSpec(t *testing.T) {
	spec, err := ParseInjectSpec("42:status")
	require.NoError(t, err)
	assert.Equal(t, 42, spec.LineNo)
	assert.Equal(t, "status", spec.Command)
}

func TestParseInjectSpec_CommandMayContainColons(t *testing.T) {
	spec, err := ParseInjectSpec("7:say hi: there")
	require.NoError(t, err)
	assert.Equal(t, 7, spec.LineNo)
	assert.Equal(t, "say hi: there", spec.Command)
}

func TestParseInjectSpec_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no separator", "status"},
		{"bad line number", "abc:status"},
		{"empty command", "42:"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInjectSpec(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestLoadInjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "injects.txt")
	content := "# startup commands\n\n1:status\n10:BREAK\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	specs, err := LoadInjectFile(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, InjectSpec{LineNo: 1, Command: "status"}, specs[0])
	assert.Equal(t, InjectSpec{LineNo: 10, Command: "BREAK"}, specs[1])
}

func TestLoadInjectFile_BadSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "injects.txt")
	require.NoError(t, os.WriteFile(path, []byte("nope\n"), 0644))

	_, err := LoadInjectFile(path)
	assert.Error(t, err)
}

func TestLoadInjectFile_Missing(t *testing.T) {
	_, err := LoadInjectFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
