// Package lineui runs typing tests on a plain terminal without a full-screen UI.
package lineui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/typespeed/internal/stats"
	"github.com/verte-zerg/typespeed/internal/typingtest"
)

const (
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyBackspace = 0x08
	keyCtrlR     = 0x12
	keyEscape    = 0x1b
	keyDelete    = 0x7f

	defaultWidth = 80
)

// Options tunes a line session.
type Options struct {
	// Width wraps the reference text; zero means 80 columns.
	Width int
	// TimeLimit submits on the first keystroke at or past the limit. A
	// rejected submit at the limit resets to a new sentence.
	TimeLimit time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

type runner struct {
	ctrl *typingtest.Controller
	in   *bufio.Reader
	out  io.Writer
	opts Options
	buf  []rune
	last rune
}

var errQuit = errors.New("quit")

// RunTerminal runs sessions on f, switching it to raw mode when it is a
// terminal so the first keystroke can be timed.
func RunTerminal(ctrl *typingtest.Controller, f *os.File, out io.Writer, opts Options) error {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return Run(ctrl, f, out, opts)
	}
	if opts.Width == 0 {
		if w, _, err := term.GetSize(fd); err == nil {
			opts.Width = w
		}
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, state)
	}()
	return Run(ctrl, f, &crlfWriter{w: out}, opts)
}

// Run reads keystrokes from in and drives ctrl until the user quits or input
// ends. Enter submits, backspace edits, ctrl+r resets to a new sentence and
// ctrl+c quits.
func Run(ctrl *typingtest.Controller, in io.Reader, out io.Writer, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &runner{ctrl: ctrl, in: bufio.NewReader(in), out: out, opts: opts}
	err := r.loop()
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (r *runner) loop() error {
	for {
		r.start()
		if err := r.readSession(); err != nil {
			return err
		}
		if err := r.promptNext(); err != nil {
			return err
		}
	}
}

func (r *runner) start() {
	r.ctrl.StartTest()
	r.buf = r.buf[:0]
	r.printf("\nType the text below, then press Enter (ctrl+r new text, ctrl+c quit):\n\n")
	for _, line := range wrapText(r.ctrl.ReferenceText(), r.opts.Width) {
		r.printf("  %s\n", line)
	}
	r.printf("\n> ")
}

// readSession returns nil once the session completes.
func (r *runner) readSession() error {
	for {
		ch, err := r.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) && len(r.buf) > 0 && r.submit() {
				return errQuit
			}
			return err
		}
		switch {
		case ch == keyCtrlC:
			r.printf("\n")
			return errQuit
		case ch == keyCtrlD && len(r.buf) == 0:
			r.printf("\n")
			return errQuit
		case ch == keyCtrlR:
			r.ctrl.Reset()
			r.printf("\nReset.\n")
			r.start()
			continue
		case ch == '\r' || ch == '\n':
			if r.submit() {
				return nil
			}
			continue
		}

		r.ctrl.OnKeystroke(r.opts.Now())
		switch {
		case ch == keyBackspace || ch == keyDelete:
			if len(r.buf) > 0 {
				removed := r.buf[len(r.buf)-1]
				r.buf = r.buf[:len(r.buf)-1]
				r.erase(runewidth.RuneWidth(removed))
			}
		case ch == keyEscape:
			if err := r.skipEscapeSequence(); err != nil {
				return err
			}
		case ch < 0x20:
			// Other control keys start the timer but are not text.
		default:
			r.buf = append(r.buf, ch)
			r.printf("%c", ch)
		}

		if r.limitReached() {
			r.printf("\nTime limit reached.")
			if r.submit() {
				return nil
			}
			r.ctrl.Reset()
			r.printf("\nReset.\n")
			r.start()
		}
	}
}

func (r *runner) limitReached() bool {
	if r.opts.TimeLimit <= 0 || r.ctrl.State() != typingtest.Running {
		return false
	}
	return r.ctrl.Elapsed(r.opts.Now()) >= r.opts.TimeLimit.Seconds()
}

// submit reports whether the session completed. Rejections are printed and
// the prompt is redrawn with the text typed so far.
func (r *runner) submit() bool {
	result, err := r.ctrl.SubmitTest(string(r.buf), r.opts.Now())
	r.printf("\n")
	if err != nil {
		r.printf("Warning: %s\n> %s", typingtest.Notice(err), string(r.buf))
		return false
	}
	r.printf("\n")
	if err := stats.RenderResult(r.out, result); err != nil {
		// Best-effort rendering; the summary line follows anyway.
		_ = err
	}
	r.printf("\n%s\n", stats.FormatSummary(result))
	return true
}

func (r *runner) promptNext() error {
	r.printf("\nPress Enter for a new test or q to quit.\n")
	for {
		ch, err := r.readRune()
		if err != nil {
			return err
		}
		switch ch {
		case 'q', 'Q', keyCtrlC, keyCtrlD:
			return errQuit
		case '\r', '\n':
			return nil
		}
	}
}

// readRune reads the next rune, folding a CRLF pair into a single '\r'.
func (r *runner) readRune() (rune, error) {
	for {
		ch, _, err := r.in.ReadRune()
		if err != nil {
			return 0, err
		}
		prev := r.last
		r.last = ch
		if ch == '\n' && prev == '\r' {
			continue
		}
		return ch, nil
	}
}

// skipEscapeSequence drops the remainder of a CSI or SS3 sequence such as
// an arrow key.
func (r *runner) skipEscapeSequence() error {
	if r.in.Buffered() == 0 {
		return nil
	}
	ch, err := r.readRune()
	if err != nil {
		return err
	}
	if ch != '[' && ch != 'O' {
		return nil
	}
	for {
		ch, err := r.readRune()
		if err != nil {
			return err
		}
		if ch >= 0x40 && ch <= 0x7e {
			return nil
		}
	}
}

func (r *runner) erase(width int) {
	for i := 0; i < width; i++ {
		r.printf("\b \b")
	}
}

func (r *runner) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(r.out, format, args...); err != nil {
		// Best-effort terminal output.
		_ = err
	}
}

func wrapText(text string, width int) []string {
	limit := max(width-2, 10)
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > limit {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += w
	}
	if lineWidth > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// crlfWriter translates "\n" to "\r\n" for terminals in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\n", "\r\n")
	if _, err := io.WriteString(c.w, s); err != nil {
		return 0, err
	}
	return len(p), nil
}
