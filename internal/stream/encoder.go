package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// State of one streamed query lifecycle.
type State int

const (
	Idle State = iota
	Searching
	Generating
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Generating:
		return "generating"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition flags an out-of-order emit. It is a programming
// error in the caller, never sent to the consumer.
var ErrInvalidTransition = errors.New("invalid stream transition")

// Source is one cited context chunk on the wire.
type Source struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// event is the wire shape: one JSON object per line with a data: prefix.
type event struct {
	Type      string   `json:"type"`
	Message   string   `json:"message,omitempty"`
	Sources   []Source `json:"sources,omitempty"`
	Token     string   `json:"token,omitempty"`
	Model     string   `json:"model,omitempty"`
	Fragments int      `json:"fragments,omitempty"`
}

// Encoder turns generation progress into a well-formed event sequence:
// status* sources (token)* (done|error), with exactly one terminal event.
// It enforces the ordering; callers that skip states get
// ErrInvalidTransition instead of a malformed wire stream.
type Encoder struct {
	w         io.Writer
	flusher   http.Flusher
	state     State
	fragments int
}

// NewEncoder wraps a response writer. If it supports flushing, every
// event is flushed so consumers see tokens as they are produced.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w, state: Idle}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

// State reports the current lifecycle state.
func (e *Encoder) State() State { return e.state }

// FragmentCount reports tokens emitted so far.
func (e *Encoder) FragmentCount() int { return e.fragments }

// Status emits a progress message. Allowed before sources only.
func (e *Encoder) Status(message string) error {
	if e.state != Idle && e.state != Searching {
		return fmt.Errorf("%w: status in state %s", ErrInvalidTransition, e.state)
	}
	e.state = Searching
	return e.write(event{Type: "status", Message: message})
}

// Sources emits the citation list, even when empty, and moves the stream
// into the generating phase.
func (e *Encoder) Sources(sources []Source) error {
	if e.state != Idle && e.state != Searching {
		return fmt.Errorf("%w: sources in state %s", ErrInvalidTransition, e.state)
	}
	if sources == nil {
		sources = []Source{}
	}
	e.state = Generating
	return e.write(event{Type: "sources", Sources: sources})
}

// Token emits one generated fragment.
func (e *Encoder) Token(token string) error {
	if e.state != Generating {
		return fmt.Errorf("%w: token in state %s", ErrInvalidTransition, e.state)
	}
	e.fragments++
	return e.write(event{Type: "token", Token: token})
}

// Done emits the single success terminal carrying the serving model and
// the fragment count.
func (e *Encoder) Done(model string) error {
	if e.state != Generating {
		return fmt.Errorf("%w: done in state %s", ErrInvalidTransition, e.state)
	}
	e.state = Completed
	return e.write(event{Type: "done", Model: model, Fragments: e.fragments})
}

// Error emits the single failure terminal. Valid from any non-terminal
// state; after it, nothing else is ever written.
func (e *Encoder) Error(message string) error {
	if e.state == Completed || e.state == Failed {
		return fmt.Errorf("%w: error in state %s", ErrInvalidTransition, e.state)
	}
	e.state = Failed
	return e.write(event{Type: "error", Message: message})
}

func (e *Encoder) write(ev event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := e.w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
