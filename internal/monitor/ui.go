package monitor

import "log/slog"

// Frame is the render snapshot handed to the UI after each dispatch.
type Frame struct {
	LineNo   int
	Map      string
	Users    int
	Stepping bool
	Kicks    int
	Spams    int
	LastLine string
}

// UI is the rendering capability the monitor drives. Implementations
// are invoked synchronously from the consumer goroutine after each
// dispatch and must not block indefinitely.
type UI interface {
	Render(f Frame)
	Notify(msg string)
}

// SlogUI is the default headless UI: frames at debug level, operator
// notices at warn.
type SlogUI struct{}

func (SlogUI) Render(f Frame) {
	slog.Debug("frame",
		"line", f.LineNo,
		"map", f.Map,
		"users", f.Users,
		"stepping", f.Stepping,
		"kicks", f.Kicks,
		"spams", f.Spams,
	)
}

func (SlogUI) Notify(msg string) {
	slog.Warn(msg)
}
