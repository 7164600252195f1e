package conlog

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLog creates a console log under a temp dir and returns its path.
func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// openFeed builds a feed over content with rewind on and follow off,
// the replay configuration used throughout these tests.
func openFeed(t *testing.T, content string, opts Options) *Feed {
	t.Helper()
	opts.Rewind = true
	f, err := NewFeed(writeLog(t, content), opts)
	require.NoError(t, err)
	require.NoError(t, f.Open(context.Background()))
	t.Cleanup(func() { f.Close() })
	return f
}

// drain reads the feed to EOF.
func drain(t *testing.T, f *Feed) []Line {
	t.Helper()
	var lines []Line
	for {
		line, err := f.ReadLine()
		if err == io.EOF {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestFeed_ReadsLinesInOrder(t *testing.T) {
	f := openFeed(t, "alpha\nbeta\ngamma\n", Options{})

	lines := drain(t, f)
	require.Len(t, lines, 3)
	assert.Equal(t, Line{LineNo: 1, Text: "alpha", Origin: OriginFile}, lines[0])
	assert.Equal(t, Line{LineNo: 2, Text: "beta", Origin: OriginFile}, lines[1])
	assert.Equal(t, Line{LineNo: 3, Text: "gamma", Origin: OriginFile}, lines[2])
}

func TestFeed_UnterminatedFinalLine(t *testing.T) {
	f := openFeed(t, "alpha\nbeta", Options{})

	lines := drain(t, f)
	require.Len(t, lines, 2)
	assert.Equal(t, "beta", lines[1].Text)
	assert.Equal(t, 2, lines[1].LineNo)
}

func TestFeed_InjectionDeliveredBeforeTargetLine(t *testing.T) {
	f := openFeed(t, "one\ntwo\nthree\n", Options{})
	f.Inject(2, "status")

	lines := drain(t, f)
	require.Len(t, lines, 4)
	assert.Equal(t, "one", lines[0].Text)
	assert.Equal(t, Tag+"status", lines[1].Text)
	assert.Equal(t, OriginInjected, lines[1].Origin)
	assert.Equal(t, "two", lines[2].Text)
	assert.Equal(t, "three", lines[3].Text)
}

func TestFeed_InjectionAtLineOnePrecedesEverything(t *testing.T) {
	f := openFeed(t, "one\n", Options{})
	f.Inject(1, "first")

	lines := drain(t, f)
	require.Len(t, lines, 2)
	assert.Equal(t, Tag+"first", lines[0].Text)
	assert.Equal(t, "one", lines[1].Text)
}

func TestFeed_TwoInjectionsSameTargetSeparatedByRealLine(t *testing.T) {
	f := openFeed(t, "one\ntwo\nthree\n", Options{})
	f.Inject(2, "a")
	f.Inject(2, "b")

	lines := drain(t, f)
	require.Len(t, lines, 5)
	// The pause after "a" lets "two" through before "b" fires.
	assert.Equal(t, "one", lines[0].Text)
	assert.Equal(t, Tag+"a", lines[1].Text)
	assert.Equal(t, "two", lines[2].Text)
	assert.Equal(t, Tag+"b", lines[3].Text)
	assert.Equal(t, "three", lines[4].Text)
}

func TestFeed_InjectionsDrainAtEOF(t *testing.T) {
	f := openFeed(t, "one\n", Options{})
	f.Inject(1, "a")
	f.Inject(1, "b")
	f.Inject(1, "c")

	lines := drain(t, f)
	require.Len(t, lines, 4)
	assert.Equal(t, Tag+"a", lines[0].Text)
	assert.Equal(t, "one", lines[1].Text)
	assert.Equal(t, Tag+"b", lines[2].Text)
	assert.Equal(t, Tag+"c", lines[3].Text)
}

func TestFeed_InjectionPastEOFNeverFires(t *testing.T) {
	f := openFeed(t, "one\n", Options{})
	f.Inject(100, "never")

	lines := drain(t, f)
	require.Len(t, lines, 1)
	assert.Equal(t, "one", lines[0].Text)
}

func TestFeed_InjectTagNotDoubled(t *testing.T) {
	f := openFeed(t, "one\n", Options{})
	f.Inject(1, Tag+"already")

	lines := drain(t, f)
	require.NotEmpty(t, lines)
	assert.Equal(t, Tag+"already", lines[0].Text)
}

func TestFeed_ExcludedLinesDropped(t *testing.T) {
	content := "keep me\nDropped packet\nkeep me too\n"
	f := openFeed(t, content, Options{Exclude: []string{`^Dropped `}})

	lines := drain(t, f)
	require.Len(t, lines, 2)
	assert.Equal(t, "keep me", lines[0].Text)
	assert.Equal(t, "keep me too", lines[1].Text)
	// Excluded lines still advance the physical counter.
	assert.Equal(t, 3, lines[1].LineNo)
}

func TestFeed_ExcludedLineDoesNotUnlockInjections(t *testing.T) {
	content := "noise\none\n"
	f := openFeed(t, content, Options{Exclude: []string{`^noise$`}})
	f.Inject(1, "a")
	f.Inject(1, "b")

	lines := drain(t, f)
	require.Len(t, lines, 3)
	// "b" waits for a delivered line; the excluded "noise" between the
	// two injections does not lift the pause.
	assert.Equal(t, Tag+"a", lines[0].Text)
	assert.Equal(t, "one", lines[1].Text)
	assert.Equal(t, Tag+"b", lines[2].Text)
}

func TestFeed_BadExclusionPattern(t *testing.T) {
	_, err := NewFeed("console.log", Options{Exclude: []string{"("}})
	assert.Error(t, err)
}

func TestFeed_SplitsConcatenatedTaggedLine(t *testing.T) {
	f := openFeed(t, Tag+"STATUS trailing junk\n", Options{})

	lines := drain(t, f)
	require.Len(t, lines, 2)
	assert.Equal(t, Tag+"STATUS", lines[0].Text)
	assert.Equal(t, "trailing junk", lines[1].Text)
	// The remainder keeps the same physical line number.
	assert.Equal(t, lines[0].LineNo, lines[1].LineNo)
}

func TestFeed_ReplacesUndecodableBytes(t *testing.T) {
	f := openFeed(t, "bad \xff name\n", Options{})

	lines := drain(t, f)
	require.Len(t, lines, 1)
	assert.Equal(t, "bad � name", lines[0].Text)
}

func TestFeed_NoRewindSkipsExistingContent(t *testing.T) {
	path := writeLog(t, "old one\nold two\n")
	f, err := NewFeed(path, Options{})
	require.NoError(t, err)
	require.NoError(t, f.Open(context.Background()))
	defer f.Close()

	assert.Equal(t, 2, f.LineNo())
	_, err = f.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestFeed_NoRewindThenFollowYieldsAppendedLine(t *testing.T) {
	path := writeLog(t, "old one\nold two\n")
	f, err := NewFeed(path, Options{Follow: true})
	require.NoError(t, err)
	require.NoError(t, f.Open(context.Background()))
	defer f.Close()

	appended, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = appended.WriteString("fresh\n")
	require.NoError(t, err)
	require.NoError(t, appended.Close())

	line, err := f.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, Line{LineNo: 3, Text: "fresh", Origin: OriginFile}, line)
}

func TestFeed_NoRewindCountsUnterminatedLine(t *testing.T) {
	path := writeLog(t, "old one\npartial")
	f, err := NewFeed(path, Options{})
	require.NoError(t, err)
	require.NoError(t, f.Open(context.Background()))
	defer f.Close()

	assert.Equal(t, 2, f.LineNo())
}

func TestFeed_OpenWaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")
	f, err := NewFeed(path, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeed_StartupInjectionsFromOptions(t *testing.T) {
	path := writeLog(t, "one\n")
	f, err := NewFeed(path, Options{
		Rewind:     true,
		Injections: []InjectSpec{{LineNo: 1, Command: "boot"}},
	})
	require.NoError(t, err)
	require.NoError(t, f.Open(context.Background()))
	defer f.Close()

	lines := drain(t, f)
	require.Len(t, lines, 2)
	assert.Equal(t, Tag+"boot", lines[0].Text)
}

func TestFeed_Trunc(t *testing.T) {
	path := writeLog(t, "one\ntwo\n")
	f, err := NewFeed(path, Options{})
	require.NoError(t, err)

	require.NoError(t, f.Trunc())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFeed_Clean(t *testing.T) {
	path := writeLog(t, "keep\nnoise\nkeep two\n")
	f, err := NewFeed(path, Options{Exclude: []string{`^noise$`}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Clean(&buf))
	assert.Equal(t, "keep\nkeep two\n", buf.String())
}

func TestOrigin_String(t *testing.T) {
	assert.Equal(t, "file", OriginFile.String())
	assert.Equal(t, "injected", OriginInjected.String())
}
