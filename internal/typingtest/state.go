package typingtest

import "errors"

// State is the lifecycle stage of the current session.
type State int

const (
	Idle State = iota
	AwaitingFirstKeystroke
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingFirstKeystroke:
		return "ready"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Active reports whether a session is accepting input.
func (s State) Active() bool {
	return s == AwaitingFirstKeystroke || s == Running
}

// Submit errors. All are recoverable by the user.
var (
	ErrNoActiveSession     = errors.New("no active session")
	ErrNoKeystrokeRecorded = errors.New("no keystroke recorded")
	ErrEmptySubmission     = errors.New("empty submission")
)

// Notice returns the user-facing message for a submit error.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrNoActiveSession):
		return "No test in progress. Start a new test first."
	case errors.Is(err, ErrNoKeystrokeRecorded):
		return "You haven't started typing yet!"
	case errors.Is(err, ErrEmptySubmission):
		return "You haven't typed anything!"
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
