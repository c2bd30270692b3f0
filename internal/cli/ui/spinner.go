package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// RequestSpinner animates while one API request is in flight and then
// reports its outcome with the elapsed time. With static set it writes the
// message once and no animation, for terminals that cannot redraw.
type RequestSpinner struct {
	w      io.Writer
	static bool
	s      *spinner.Spinner
	msg    string
	start  time.Time
	now    func() time.Time
}

// NewRequestSpinner creates a spinner writing to w.
func NewRequestSpinner(w io.Writer, static bool) *RequestSpinner {
	return &RequestSpinner{w: w, static: static, now: time.Now}
}

// Start shows msg and starts the clock.
func (rs *RequestSpinner) Start(msg string) {
	rs.msg = msg
	rs.start = rs.now()
	if rs.static {
		fmt.Fprintf(rs.w, "  %s", msg)
		return
	}
	rs.s = spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(rs.w))
	rs.s.Prefix = "  "
	rs.s.Suffix = " " + msg
	rs.s.Start()
}

// Succeed ends the request with a check mark and how long it took.
func (rs *RequestSpinner) Succeed() {
	rs.finish(StyleSuccess.Render(SymbolCheck) + " " + StyleHint.Render(rs.elapsed()))
}

// Fail ends the request with a cross and reason, e.g. "HTTP 401".
func (rs *RequestSpinner) Fail(reason string) {
	out := StyleError.Render(SymbolCross)
	if reason != "" {
		out += " " + StyleError.Render(reason)
	}
	rs.finish(out)
}

// Stop halts the animation without a verdict. Safe to call at any time.
func (rs *RequestSpinner) Stop() {
	if rs.s != nil {
		rs.s.Stop()
		rs.s = nil
	}
}

func (rs *RequestSpinner) finish(verdict string) {
	if rs.static {
		fmt.Fprintf(rs.w, " %s\n", verdict)
		return
	}
	rs.Stop()
	fmt.Fprintf(rs.w, "\r  %s %s\n", rs.msg, verdict)
}

func (rs *RequestSpinner) elapsed() string {
	if rs.start.IsZero() {
		return ""
	}
	return rs.now().Sub(rs.start).Round(time.Millisecond).String()
}
