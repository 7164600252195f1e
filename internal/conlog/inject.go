package conlog

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Injection is a synthetic command scheduled for delivery immediately
// before the real line at TargetLine+1. Once emitted it is removed from
// the queue and never replayed.
type Injection struct {
	TargetLine int
	Command    string

	seq int // schedule order, tie-break for equal target lines
}

// injectionQueue holds pending injections sorted by target line.
//
// The queue is written by the operator path (arming breakpoints, kick
// commands) while the consumer reads it, so it carries its own lock.
// Sorting is deferred: pushes mark the queue dirty and the next pop
// re-sorts. The sort is stable in schedule order for equal targets.
type injectionQueue struct {
	mu      sync.Mutex
	items   []Injection
	nextSeq int
	dirty   bool
}

func (q *injectionQueue) push(inj Injection) {
	q.mu.Lock()
	defer q.mu.Unlock()

	inj.seq = q.nextSeq
	q.nextSeq++
	q.items = append(q.items, inj)
	q.dirty = true
}

// popReady removes and returns the head injection if its target line is
// at or before lineNo. The unlocked flag gates delivery: callers pass
// false while injection is paused after a previous emission.
func (q *injectionQueue) popReady(lineNo int, unlocked bool) (Injection, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || !unlocked {
		return Injection{}, false
	}

	if q.dirty {
		sort.SliceStable(q.items, func(i, j int) bool {
			if q.items[i].TargetLine != q.items[j].TargetLine {
				return q.items[i].TargetLine < q.items[j].TargetLine
			}
			return q.items[i].seq < q.items[j].seq
		})
		q.dirty = false
	}

	if q.items[0].TargetLine > lineNo {
		return Injection{}, false
	}

	inj := q.items[0]
	q.items[0] = Injection{}
	q.items = q.items[1:]
	return inj, true
}

func (q *injectionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// InjectSpec is a parsed "LINENO:COMMAND" injection argument.
type InjectSpec struct {
	LineNo  int
	Command string
}

// ParseInjectSpec parses a "LINENO:COMMAND" spec as given on the
// command line or in an injection file.
func ParseInjectSpec(s string) (InjectSpec, error) {
	pos, cmd, ok := strings.Cut(s, ":")
	if !ok {
		return InjectSpec{}, fmt.Errorf("invalid inject spec %q: want LINENO:COMMAND", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(pos))
	if err != nil {
		return InjectSpec{}, fmt.Errorf("invalid inject spec %q: bad line number: %w", s, err)
	}
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return InjectSpec{}, fmt.Errorf("invalid inject spec %q: empty command", s)
	}
	return InjectSpec{LineNo: n, Command: cmd}, nil
}

// LoadInjectFile reads injection specs from a file, one LINENO:COMMAND
// per line. Blank lines and lines starting with '#' are skipped.
func LoadInjectFile(path string) ([]InjectSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inject file: %w", err)
	}
	defer f.Close()

	var specs []InjectSpec
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		spec, err := ParseInjectSpec(text)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inject file: %w", err)
	}
	return specs, nil
}
