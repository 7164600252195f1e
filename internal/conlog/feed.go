package conlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Tag prefixes every line this program injects into the stream or
// echoes back through the game. It is how synthetic lines are told
// apart from organic console output.
const Tag = "TFW-"

const (
	openPollInterval   = 2 * time.Second
	followPollInterval = 250 * time.Millisecond
)

// Options configures a Feed.
type Options struct {
	// Rewind replays the file from the beginning. When false the feed
	// counts existing lines without yielding them and starts at EOF.
	Rewind bool

	// Follow keeps reading after EOF, waiting for appended content.
	Follow bool

	// Exclude lists regexps for lines to drop from the stream.
	Exclude []string

	// Injections are scheduled before the first read.
	Injections []InjectSpec
}

// Feed owns the console log file handle and produces the single
// logical stream of lines consumed by the monitor: real file lines,
// filtered by the exclusion patterns, merged with injected commands in
// target-line order.
//
// ReadLine must be called from exactly one goroutine. Inject is safe
// from any goroutine.
type Feed struct {
	path     string
	rewind   bool
	follow   bool
	excludes []*regexp.Regexp

	queue injectionQueue

	file   *os.File
	reader *bufio.Reader

	lineNo atomic.Int64
	isEOF  bool

	// holdInject pauses injection for one real-line read after an
	// injection is emitted, so two injections at the same trigger
	// point cannot starve real input. Excluded lines do not clear it.
	holdInject bool

	// pending buffers the remainder of a concatenated tagged line,
	// returned by the next ReadLine without advancing the counter.
	pending    string
	hasPending bool

	// carry buffers a partial trailing line while following, until the
	// producer writes the rest of it.
	carry string
}

// NewFeed creates a feed in the unopened state. It fails only on an
// invalid exclusion pattern.
func NewFeed(path string, opts Options) (*Feed, error) {
	f := &Feed{
		path:   path,
		rewind: opts.Rewind,
		follow: opts.Follow,
	}
	for _, expr := range opts.Exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("exclusion pattern %q: %w", expr, err)
		}
		f.excludes = append(f.excludes, re)
	}
	for _, spec := range opts.Injections {
		f.Inject(spec.LineNo, spec.Command)
	}
	return f, nil
}

// LineNo returns the current physical line counter.
func (f *Feed) LineNo() int {
	return int(f.lineNo.Load())
}

// Inject schedules a synthetic command for delivery immediately before
// the real line numbered lineno. The command is prefixed with Tag if
// it does not already carry it.
//
// Safe to call from any goroutine.
func (f *Feed) Inject(lineno int, command string) {
	if !strings.HasPrefix(command, Tag) {
		command = Tag + command
	}
	f.queue.push(Injection{TargetLine: lineno - 1, Command: command})
	slog.Debug("scheduled injection", "line", lineno, "command", command)
}

// Open blocks until the console log exists and opens it. A missing
// file is an expected startup race with the game process and is
// retried indefinitely; any other open error is fatal.
//
// When rewind is false, the existing content is consumed once to
// position the counter at end-of-file without yielding those lines.
func (f *Feed) Open(ctx context.Context) error {
	for {
		file, err := os.Open(f.path)
		if err == nil {
			f.file = file
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("open %s: %w", f.path, err)
		}
		slog.Info("waiting for console log to appear", "path", f.path)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(openPollInterval):
		}
	}

	f.reader = bufio.NewReader(f.file)

	if !f.rewind {
		n := 0
		for {
			s, err := f.reader.ReadString('\n')
			if len(s) > 0 {
				n++
			}
			if err != nil {
				break
			}
		}
		f.lineNo.Store(int64(n))
		f.isEOF = true
		slog.Info("skipped to end of console log", "path", f.path, "lines", n)
	}

	return nil
}

// Close releases the file handle.
func (f *Feed) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}

// ReadLine returns the next logical line of the stream, blocking while
// following an idle file. It returns io.EOF once the file is exhausted
// and the feed is not following.
func (f *Feed) ReadLine() (Line, error) {
	for {
		// A split-off remainder goes out first, same line number.
		if f.hasPending {
			text := f.pending
			f.pending = ""
			f.hasPending = false
			f.holdInject = false
			return Line{LineNo: f.LineNo(), Text: text, Origin: OriginFile}, nil
		}

		// Injections are delivered ahead of the real line at their
		// target, unless paused by a just-emitted injection. At EOF
		// the pause does not apply, letting the queue drain.
		if inj, ok := f.queue.popReady(f.LineNo(), f.isEOF || !f.holdInject); ok {
			f.holdInject = true
			return Line{LineNo: f.LineNo(), Text: inj.Command, Origin: OriginInjected}, nil
		}

		f.lineNo.Add(1)
		raw, err := f.reader.ReadString('\n')

		if err != nil && !errors.Is(err, io.EOF) {
			return Line{}, fmt.Errorf("read %s: %w", f.path, err)
		}

		if raw == "" || (errors.Is(err, io.EOF) && f.follow) {
			// Nothing, or a partial line still being written. Hold any
			// partial data until its newline arrives.
			f.carry += raw
			f.lineNo.Add(-1)
			wasEOF := f.isEOF
			f.isEOF = true
			if !f.follow {
				if !wasEOF {
					// One more pass so injections due at the final
					// line drain before EOF is reported.
					continue
				}
				return Line{}, io.EOF
			}
			time.Sleep(followPollInterval)
			continue
		}

		if f.carry != "" {
			raw = f.carry + raw
			f.carry = ""
		}

		if line, ok := f.processRaw(raw); ok {
			return line, nil
		}
	}
}

// processRaw turns one physical line into a deliverable Line, or
// reports false when the line is excluded.
func (f *Feed) processRaw(raw string) (Line, bool) {
	text := strings.TrimRight(raw, " \t\r\n")

	if !utf8.ValidString(text) {
		slog.Debug("replacing undecodable bytes", "line", f.LineNo())
		text = strings.ToValidUTF8(text, "�")
	}

	// A dropped newline upstream can concatenate a tagged echo with
	// the following line. Split at the first space: the tag token goes
	// out now, the remainder on the next call.
	if strings.HasPrefix(text, Tag) {
		if head, rest, ok := strings.Cut(text, " "); ok {
			slog.Warn("splitting concatenated tagged line", "line", f.LineNo(), "text", text)
			f.pending = rest
			f.hasPending = true
			text = head
		}
	}

	for _, re := range f.excludes {
		if re.MatchString(text) {
			slog.Debug("excluded line", "line", f.LineNo(), "text", text)
			return Line{}, false
		}
	}

	f.holdInject = false
	return Line{LineNo: f.LineNo(), Text: text, Origin: OriginFile}, true
}

// Trunc truncates the console log to zero length.
func (f *Feed) Trunc() error {
	if err := os.Truncate(f.path, 0); err != nil {
		return fmt.Errorf("truncate %s: %w", f.path, err)
	}
	return nil
}

// Clean re-emits every line of the file not matching an exclusion
// pattern, in original order, to w.
func (f *Feed) Clean(w io.Writer) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
scan:
	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), " \t\r")
		for _, re := range f.excludes {
			if re.MatchString(text) {
				continue scan
			}
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	return nil
}
