// Package rules implements ordered first-match-wins pattern dispatch.
//
// A rule pairs a compiled regexp with a handler. Rule lists are scanned
// in registration order and the first matching rule wins; overlapping
// patterns rely on earlier, more specific rules shadowing later,
// broader ones, so order is load-bearing and never changes after
// registration.
package rules

import "regexp"

// Match carries the result of a successful pattern match into a
// handler: the full line text plus captured groups by index and name.
type Match struct {
	Text string

	groups []string
	names  []string
}

func newMatch(re *regexp.Regexp, text string, groups []string) *Match {
	return &Match{
		Text:   text,
		groups: groups,
		names:  re.SubexpNames(),
	}
}

// Group returns capture group i, with 0 being the whole match.
// Out-of-range indexes return "".
func (m *Match) Group(i int) string {
	if i < 0 || i >= len(m.groups) {
		return ""
	}
	return m.groups[i]
}

// Named returns the capture group with the given name, or "".
func (m *Match) Named(name string) string {
	for i, n := range m.names {
		if n == name && i < len(m.groups) {
			return m.groups[i]
		}
	}
	return ""
}

// NumGroups returns the number of capture groups, excluding group 0.
func (m *Match) NumGroups() int {
	if len(m.groups) == 0 {
		return 0
	}
	return len(m.groups) - 1
}

// Rule is an immutable (pattern, handler) pair. Rules live for the
// process lifetime, owned by the router list they were registered on.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  func(*Match)
}

// Dispatch scans rules in list order and invokes the handler of the
// first rule whose pattern matches text. Remaining rules are not
// evaluated. Returns false if no rule matched.
func Dispatch(text string, list []Rule) bool {
	for i := range list {
		if groups := list[i].Pattern.FindStringSubmatch(text); groups != nil {
			list[i].Handle(newMatch(list[i].Pattern, text, groups))
			return true
		}
	}
	return false
}
