package conlog

// Origin distinguishes lines read from the console log file from lines
// spliced into the stream by this program.
type Origin int

const (
	// OriginFile marks a line physically read from the console log.
	OriginFile Origin = iota + 1
	// OriginInjected marks a synthetic line from the injection queue.
	OriginInjected
)

func (o Origin) String() string {
	switch o {
	case OriginFile:
		return "file"
	case OriginInjected:
		return "injected"
	default:
		return "unknown"
	}
}

// Line is one logical line of the console log stream.
//
// Lines are produced one at a time by Feed.ReadLine and never mutated
// afterwards; ownership passes to the caller on return.
type Line struct {
	LineNo int
	Text   string
	Origin Origin
}
