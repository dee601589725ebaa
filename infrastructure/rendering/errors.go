package rendering

import (
	"errors"
	"fmt"
)

// Kind classifies a render failure
type Kind string

const (
	// KindStartup means the engine could not be started
	KindStartup Kind = "startup"
	// KindRenderFailure means the engine ran but produced no usable markup
	KindRenderFailure Kind = "render_failure"
	// KindTimeout means the render exceeded its deadline
	KindTimeout Kind = "timeout"
	// KindUpstream means a remote renderer answered with an error or was unreachable
	KindUpstream Kind = "upstream"
)

// RenderError is returned by every renderer on failure. Error() is suitable
// for showing to users in place of the diagram.
type RenderError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Body       string
	Cause      error
}

func (e *RenderError) Error() string {
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the render ran out of time
func (e *RenderError) Timeout() bool {
	return e.Kind == KindTimeout
}

// IsKind reports whether err is a RenderError of kind k
func IsKind(err error, k Kind) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Kind == k
}

// KindOf returns the kind of a RenderError in err's chain, or ""
func KindOf(err error) Kind {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

func startupError(cause error) *RenderError {
	return &RenderError{
		Kind:    KindStartup,
		Message: fmt.Sprintf("Failed to start PlantUML process: %v", cause),
		Cause:   cause,
	}
}

func renderFailure(detail string) *RenderError {
	if detail == "" {
		detail = "No output"
	}
	return &RenderError{
		Kind:    KindRenderFailure,
		Message: "PlantUML rendering failed: " + detail,
	}
}

func timeoutError(after fmt.Stringer, cause error) *RenderError {
	return &RenderError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("PlantUML rendering timed out after %s", after),
		Cause:   cause,
	}
}

func upstreamError(status int, body string, cause error) *RenderError {
	msg := "PlantUML server unavailable"
	switch {
	case status != 0:
		msg = fmt.Sprintf("PlantUML server responded %d", status)
		if body != "" {
			msg += ": " + body
		}
	case cause != nil:
		msg = fmt.Sprintf("PlantUML server request failed: %v", cause)
	}
	return &RenderError{
		Kind:       KindUpstream,
		Message:    msg,
		StatusCode: status,
		Body:       body,
		Cause:      cause,
	}
}
