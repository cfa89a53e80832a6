// Package typingtest implements the typing test session state machine.
package typingtest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typespeed/internal/corpus"
	"github.com/verte-zerg/typespeed/internal/eventlog"
	"github.com/verte-zerg/typespeed/internal/generator"
	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/stats"
)

// EventSink receives session events. *eventlog.Logger satisfies it.
type EventSink interface {
	Append(eventlog.Event) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithEventSink records session events to sink.
func WithEventSink(sink EventSink) Option {
	return func(c *Controller) {
		c.events = sink
	}
}

// Controller owns the single typing test session. It is not safe for
// concurrent use; adapters call it from their event loop.
type Controller struct {
	corpus *corpus.Corpus
	gen    *generator.Generator
	events EventSink

	state     State
	sessionID string
	reference string
	startedAt time.Time
	hasStart  bool
	typed     string
	result    model.TestResult
}

// New returns an idle controller drawing sentences from c.
func New(c *corpus.Corpus, gen *generator.Generator, opts ...Option) *Controller {
	ctrl := &Controller{corpus: c, gen: gen}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// StartTest discards any current session and begins a new one with a
// randomly chosen reference sentence.
func (c *Controller) StartTest() {
	c.clear()
	c.sessionID = uuid.NewString()
	c.reference = c.gen.Pick(c.corpus)
	c.state = AwaitingFirstKeystroke
	c.emit(eventlog.Event{
		Event:          eventlog.EventSessionStarted,
		ReferenceChars: len([]rune(c.reference)),
	})
}

// OnKeystroke records ts as the start time on the first keystroke of a
// session. Later keystrokes and keystrokes outside a session are ignored.
func (c *Controller) OnKeystroke(ts time.Time) {
	if c.state != AwaitingFirstKeystroke {
		return
	}
	c.startedAt = ts
	c.hasStart = true
	c.state = Running
	c.emit(eventlog.Event{Event: eventlog.EventFirstKeystroke})
}

// SubmitTest scores typed against the reference and completes the session.
// On error the session is left unchanged.
func (c *Controller) SubmitTest(typed string, end time.Time) (model.TestResult, error) {
	var err error
	trimmed := strings.TrimSpace(typed)
	switch {
	case !c.state.Active():
		err = ErrNoActiveSession
	case c.state == AwaitingFirstKeystroke:
		err = ErrNoKeystrokeRecorded
	case trimmed == "":
		err = ErrEmptySubmission
	}
	if err != nil {
		c.emit(eventlog.Event{Event: eventlog.EventSubmitRejected, Error: err.Error()})
		return model.TestResult{}, err
	}

	result := stats.Compute(c.reference, trimmed, end.Sub(c.startedAt).Seconds())
	c.typed = trimmed
	c.result = result
	c.state = Completed
	c.emit(eventlog.Event{
		Event:  eventlog.EventSessionCompleted,
		Result: &eventlog.Metrics{
			ElapsedSeconds:  result.ElapsedSeconds,
			WPM:             result.WPM,
			AccuracyPercent: result.AccuracyPercent,
		},
	})
	return result, nil
}

// Reset returns the controller to Idle from any state.
func (c *Controller) Reset() {
	if c.state != Idle {
		c.emit(eventlog.Event{Event: eventlog.EventSessionReset})
	}
	c.clear()
}

func (c *Controller) clear() {
	c.state = Idle
	c.sessionID = ""
	c.reference = ""
	c.startedAt = time.Time{}
	c.hasStart = false
	c.typed = ""
	c.result = model.TestResult{}
}

// State returns the current session state.
func (c *Controller) State() State {
	return c.state
}

// ReferenceText returns the sentence for the current session, or "" when idle.
func (c *Controller) ReferenceText() string {
	return c.reference
}

// StartedAt returns the first keystroke time, if one was recorded.
func (c *Controller) StartedAt() (time.Time, bool) {
	return c.startedAt, c.hasStart
}

// TypedText returns the trimmed text accepted at submit.
func (c *Controller) TypedText() string {
	return c.typed
}

// Result returns the result of a completed session.
func (c *Controller) Result() (model.TestResult, bool) {
	return c.result, c.state == Completed
}

// SessionID identifies the current session in the event log.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Elapsed returns seconds since the first keystroke while running, the final
// elapsed time once completed, and zero otherwise.
func (c *Controller) Elapsed(now time.Time) float64 {
	switch c.state {
	case Running:
		return max(now.Sub(c.startedAt).Seconds(), 0)
	case Completed:
		return c.result.ElapsedSeconds
	default:
		return 0
	}
}

func (c *Controller) emit(event eventlog.Event) {
	if c.events == nil {
		return
	}
	event.SessionID = c.sessionID
	if err := c.events.Append(event); err != nil {
		logErrf("failed to write event log: %v\n", err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
