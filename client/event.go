package client

import (
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/retry"
)

// Operation names a client call in events and logs.
type Operation string

const (
	OpPrompt      Operation = "prompt"
	OpPromptText  Operation = "prompt_text"
	OpInspiration Operation = "inspiration"
	OpImage       Operation = "image"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	EventRequestStart    EventType = "request_start"
	EventRequestComplete EventType = "request_complete"
	EventRequestError    EventType = "request_error"

	// EventRetry forwards an event from the retry loop.
	EventRetry EventType = "retry"
)

// RetryEvent is the retry loop's event, forwarded inside EventRetry.
type RetryEvent = retry.Event

// Event reports progress of a single client call. Front ends use it to show
// a waiting indicator and a countdown while a rate-limited call is retried.
type Event struct {
	Type      EventType
	Operation Operation
	Provider  promptcraft.Provider

	Duration   time.Duration // set on completion and error
	Error      error
	RetryEvent *RetryEvent
	Timestamp  time.Time
}

// RetryDelay returns how long the client will wait before the next attempt,
// or zero if the event is not a pending retry.
func (e Event) RetryDelay() time.Duration {
	if e.Type != EventRetry || e.RetryEvent == nil || e.RetryEvent.Type != retry.EventRetrying {
		return 0
	}
	return e.RetryEvent.Delay
}

// emit stamps the event and delivers it unless the channel is nil or full.
func emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
