package typingtest

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typespeed/internal/corpus"
	"github.com/verte-zerg/typespeed/internal/eventlog"
	"github.com/verte-zerg/typespeed/internal/generator"
)

type recordingSink struct {
	events []eventlog.Event
	err    error
}

func (r *recordingSink) Append(e eventlog.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingSink) names() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

func newController(t *testing.T, sentences ...string) *Controller {
	t.Helper()
	if len(sentences) == 0 {
		sentences = []string{"The quick brown fox jumps over the lazy dog."}
	}
	c, err := corpus.New(sentences)
	if err != nil {
		t.Fatalf("new corpus: %v", err)
	}
	return New(c, generator.NewWithSeed(7))
}

var t0 = time.Unix(1_700_000_000, 0)

func TestNewControllerIsIdle(t *testing.T) {
	ctrl := newController(t)
	if ctrl.State() != Idle {
		t.Fatalf("expected idle, got %s", ctrl.State())
	}
	if ctrl.ReferenceText() != "" {
		t.Fatalf("expected empty reference")
	}
}

func TestStartTestPicksCorpusMember(t *testing.T) {
	sentences := []string{"alpha beta", "gamma delta", "epsilon zeta"}
	ctrl := newController(t, sentences...)
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		ctrl.StartTest()
		ref := ctrl.ReferenceText()
		found := false
		for _, s := range sentences {
			if s == ref {
				found = true
			}
		}
		if !found {
			t.Fatalf("reference %q is not a corpus member", ref)
		}
		seen[ref] = true
	}
	if len(seen) != len(sentences) {
		t.Fatalf("expected every sentence to be picked, saw %d of %d", len(seen), len(sentences))
	}
}

func TestStartTestEntersAwaitingState(t *testing.T) {
	ctrl := newController(t)
	ctrl.StartTest()
	if ctrl.State() != AwaitingFirstKeystroke {
		t.Fatalf("expected awaiting first keystroke, got %s", ctrl.State())
	}
	if _, ok := ctrl.StartedAt(); ok {
		t.Fatalf("expected start time to be unset")
	}
	if ctrl.SessionID() == "" {
		t.Fatalf("expected session id")
	}
}

func TestOnKeystrokeRecordsStartOnce(t *testing.T) {
	ctrl := newController(t)
	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	ctrl.OnKeystroke(t0.Add(2 * time.Second))
	ctrl.OnKeystroke(t0.Add(5 * time.Second))

	start, ok := ctrl.StartedAt()
	if !ok || !start.Equal(t0) {
		t.Fatalf("expected start %v, got %v (set=%v)", t0, start, ok)
	}
	if ctrl.State() != Running {
		t.Fatalf("expected running, got %s", ctrl.State())
	}
}

func TestOnKeystrokeIgnoredWhenIdleOrCompleted(t *testing.T) {
	ctrl := newController(t)
	ctrl.OnKeystroke(t0)
	if ctrl.State() != Idle {
		t.Fatalf("expected keystroke to be ignored while idle")
	}
	if _, ok := ctrl.StartedAt(); ok {
		t.Fatalf("expected no start time while idle")
	}

	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	if _, err := ctrl.SubmitTest("The", t0.Add(time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	ctrl.OnKeystroke(t0.Add(time.Minute))
	start, _ := ctrl.StartedAt()
	if ctrl.State() != Completed || !start.Equal(t0) {
		t.Fatalf("expected completed session to be untouched")
	}
}

func TestSubmitBeforeKeystroke(t *testing.T) {
	ctrl := newController(t)
	ctrl.StartTest()
	ref := ctrl.ReferenceText()
	_, err := ctrl.SubmitTest("anything", t0)
	if !errors.Is(err, ErrNoKeystrokeRecorded) {
		t.Fatalf("expected ErrNoKeystrokeRecorded, got %v", err)
	}
	if ctrl.State() != AwaitingFirstKeystroke || ctrl.ReferenceText() != ref {
		t.Fatalf("expected session to be unchanged after error")
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	ctrl := newController(t)
	if _, err := ctrl.SubmitTest("text", t0); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession while idle, got %v", err)
	}

	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	if _, err := ctrl.SubmitTest("The", t0.Add(time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := ctrl.SubmitTest("The", t0.Add(2*time.Second)); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession after completion, got %v", err)
	}
}

func TestSubmitWhitespaceOnly(t *testing.T) {
	ctrl := newController(t)
	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	for _, typed := range []string{"", "   ", "\n\t \n"} {
		if _, err := ctrl.SubmitTest(typed, t0.Add(time.Second)); !errors.Is(err, ErrEmptySubmission) {
			t.Fatalf("expected ErrEmptySubmission for %q, got %v", typed, err)
		}
	}
	start, ok := ctrl.StartedAt()
	if ctrl.State() != Running || !ok || !start.Equal(t0) {
		t.Fatalf("expected timing to survive rejected submit")
	}
}

func TestRetryAfterRejectedSubmit(t *testing.T) {
	ctrl := newController(t, "cat dog")
	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	if _, err := ctrl.SubmitTest("  ", t0.Add(30*time.Second)); err == nil {
		t.Fatalf("expected error")
	}
	result, err := ctrl.SubmitTest("cat dog", t0.Add(60*time.Second))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.ElapsedSeconds != 60 || result.WPM != 2 || result.AccuracyPercent != 100 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	ctrl := newController(t)
	ctrl.StartTest()
	ctrl.OnKeystroke(t0)

	ctrl.Reset()
	if ctrl.State() != Idle {
		t.Fatalf("expected idle after first reset")
	}
	ctrl.Reset()
	if ctrl.State() != Idle {
		t.Fatalf("expected idle after second reset")
	}
	if ctrl.ReferenceText() != "" || ctrl.TypedText() != "" || ctrl.SessionID() != "" {
		t.Fatalf("expected session fields to be cleared")
	}
	if _, ok := ctrl.StartedAt(); ok {
		t.Fatalf("expected start time to be cleared")
	}
	if _, ok := ctrl.Result(); ok {
		t.Fatalf("expected no result after reset")
	}
}

func TestStartTestDiscardsPreviousTiming(t *testing.T) {
	ctrl := newController(t)
	ctrl.StartTest()
	first := ctrl.SessionID()
	ctrl.OnKeystroke(t0)

	ctrl.StartTest()
	if ctrl.SessionID() == first {
		t.Fatalf("expected a new session id")
	}
	if _, ok := ctrl.StartedAt(); ok {
		t.Fatalf("expected start time to be discarded")
	}
	if _, err := ctrl.SubmitTest("text", t0.Add(time.Second)); !errors.Is(err, ErrNoKeystrokeRecorded) {
		t.Fatalf("expected ErrNoKeystrokeRecorded, got %v", err)
	}
}

func TestEndToEndScenario(t *testing.T) {
	ref := "The quick brown fox jumps over the lazy dog."
	ctrl := newController(t, ref)
	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	result, err := ctrl.SubmitTest("The quick brown fox", t0.Add(10*time.Second))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.ElapsedSeconds != 10 {
		t.Fatalf("expected 10 seconds, got %v", result.ElapsedSeconds)
	}
	if math.Abs(result.WPM-24) > 1e-9 {
		t.Fatalf("expected 24 WPM, got %v", result.WPM)
	}
	want := float64(len("The quick brown fox")) / float64(len(ref)) * 100
	if math.Abs(result.AccuracyPercent-want) > 1e-9 {
		t.Fatalf("expected accuracy %v, got %v", want, result.AccuracyPercent)
	}
	if ctrl.State() != Completed || ctrl.TypedText() != "The quick brown fox" {
		t.Fatalf("expected completed session with typed text")
	}
	if got, ok := ctrl.Result(); !ok || got != result {
		t.Fatalf("expected stored result")
	}
}

func TestSubmitTrimsTypedText(t *testing.T) {
	ctrl := newController(t, "abcd")
	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	result, err := ctrl.SubmitTest("  abXd \n", t0.Add(time.Second))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.AccuracyPercent != 75 {
		t.Fatalf("expected 75%% accuracy, got %v", result.AccuracyPercent)
	}
}

func TestElapsed(t *testing.T) {
	ctrl := newController(t)
	if ctrl.Elapsed(t0) != 0 {
		t.Fatalf("expected zero elapsed while idle")
	}
	ctrl.StartTest()
	if ctrl.Elapsed(t0) != 0 {
		t.Fatalf("expected zero elapsed before first keystroke")
	}
	ctrl.OnKeystroke(t0)
	if got := ctrl.Elapsed(t0.Add(3 * time.Second)); got != 3 {
		t.Fatalf("expected 3 seconds, got %v", got)
	}
	if _, err := ctrl.SubmitTest("The", t0.Add(4*time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := ctrl.Elapsed(t0.Add(time.Hour)); got != 4 {
		t.Fatalf("expected frozen elapsed of 4 seconds, got %v", got)
	}
}

func TestEventsAreRecorded(t *testing.T) {
	c, err := corpus.New([]string{"cat dog"})
	if err != nil {
		t.Fatalf("new corpus: %v", err)
	}
	sink := &recordingSink{}
	ctrl := New(c, generator.NewWithSeed(1), WithEventSink(sink))

	ctrl.StartTest()
	id := ctrl.SessionID()
	_, _ = ctrl.SubmitTest("cat", t0)
	ctrl.OnKeystroke(t0)
	ctrl.OnKeystroke(t0.Add(time.Second))
	if _, err := ctrl.SubmitTest("cat dog", t0.Add(time.Minute)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	ctrl.Reset()
	ctrl.Reset()

	want := []string{
		eventlog.EventSessionStarted,
		eventlog.EventSubmitRejected,
		eventlog.EventFirstKeystroke,
		eventlog.EventSessionCompleted,
		eventlog.EventSessionReset,
	}
	if got := sink.names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected events: %v", got)
	}
	for _, e := range sink.events {
		if e.SessionID != id {
			t.Fatalf("expected session id %q on %s, got %q", id, e.Event, e.SessionID)
		}
	}
	if r := sink.events[3].Result; r == nil || r.WPM != 2 || r.AccuracyPercent != 100 {
		t.Fatalf("unexpected completion event: %+v", sink.events[3])
	}
}

func TestEventSinkFailureDoesNotInterrupt(t *testing.T) {
	c, err := corpus.New([]string{"cat dog"})
	if err != nil {
		t.Fatalf("new corpus: %v", err)
	}
	ctrl := New(c, generator.NewWithSeed(1), WithEventSink(&recordingSink{err: errors.New("disk full")}))
	ctrl.StartTest()
	ctrl.OnKeystroke(t0)
	if _, err := ctrl.SubmitTest("cat dog", t0.Add(time.Minute)); err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}
}

func TestNotice(t *testing.T) {
	cases := map[error]string{
		ErrNoKeystrokeRecorded: "You haven't started typing yet!",
		ErrEmptySubmission:     "You haven't typed anything!",
	}
	for err, want := range cases {
		if got := Notice(err); got != want {
			t.Fatalf("Notice(%v) = %q, want %q", err, got, want)
		}
	}
	if Notice(nil) != "" {
		t.Fatalf("expected empty notice for nil error")
	}
	if !strings.Contains(Notice(ErrNoActiveSession), "Start a new test") {
		t.Fatalf("unexpected notice for no active session")
	}
}
