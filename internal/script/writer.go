package script

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the generated script inside the game's cfg directory.
// The game executes it via `exec tfwatch` bound to the operator's keys.
const FileName = "tfwatch.cfg"

// tag mirrors conlog.Tag; duplicated here so the script package does
// not depend on the feed.
const tag = "TFW-"

// Writer regenerates the outbound script whenever queue content
// changes. Each non-empty queue contributes a pop and a popleft alias;
// the alias body carries the queued command followed by an
// acknowledgement echo that comes back through the console log and
// pops the queue.
//
// A missing script directory disables writing for the session rather
// than aborting: the monitor still works, it just cannot publish
// commands back to the game.
type Writer struct {
	path     string
	disabled bool
	queues   []*Queue

	last string // last rendered content, to skip no-op rewrites
}

// NewWriter creates a writer for the given cfg directory. The queues
// are rendered in the order given.
func NewWriter(dir string, queues ...*Queue) *Writer {
	w := &Writer{
		path:   filepath.Join(dir, FileName),
		queues: queues,
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		slog.Warn("script directory missing, outbound script disabled", "dir", dir)
		w.disabled = true
	}
	return w
}

// Disabled reports whether script writing is off for the session.
func (w *Writer) Disabled() bool {
	return w.disabled
}

// AckCommand returns the tagged echo name acknowledging a pop from the
// named queue, e.g. "TFW-KICKS-POP".
func AckCommand(queue string, fromLeft bool) string {
	suffix := "-POP"
	if fromLeft {
		suffix = "-POPLEFT"
	}
	return tag + strings.ToUpper(queue) + suffix
}

// Commit rewrites the script file if the rendered content changed
// since the last commit.
func (w *Writer) Commit() error {
	if w.disabled {
		return nil
	}

	content := w.render()
	if content == w.last {
		return nil
	}

	if err := os.WriteFile(w.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write script %s: %w", w.path, err)
	}
	w.last = content
	slog.Debug("script committed", "path", w.path, "bytes", len(content))
	return nil
}

// render produces the full script content. Deterministic for a given
// queue state.
func (w *Writer) render() string {
	var b strings.Builder
	b.WriteString("// generated by tfwatch; do not edit\n")

	for _, q := range w.queues {
		head, ok := q.Head()
		if !ok {
			continue
		}
		tail, _ := q.Tail()

		fmt.Fprintf(&b, "alias tfw_%s_popleft \"%s; echo %s\"\n",
			q.Name(), sanitize(head), AckCommand(q.Name(), true))
		fmt.Fprintf(&b, "alias tfw_%s_pop \"%s; echo %s\"\n",
			q.Name(), sanitize(tail), AckCommand(q.Name(), false))
	}

	return b.String()
}

// sanitize keeps a queued command legal inside a double-quoted alias
// body. Double quotes would end the body early.
func sanitize(body string) string {
	return strings.ReplaceAll(body, `"`, `'`)
}
