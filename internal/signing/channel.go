// Package signing defines the duplex event channel used to hand unsigned
// payloads to an external signer and receive signatures back.
//
// The engine never holds private keys. A node that needs a signature emits a
// RequestEvent and listens for the correlated SignedEvent or ErrorEvent of its
// (execution, node) pair. Transports are pluggable: Local for in-process use
// and HTTP-delivered signatures, SocketIO for a real-time wallet bridge.
package signing

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// RequestEvent is emitted with a Request when a node needs a signature.
const RequestEvent = "sign_request"

// Handler receives the first argument of an event.
type Handler func(payload any)

// Channel is an event-capable duplex channel associated with a run.
type Channel interface {
	// Emit publishes payload under event.
	Emit(event string, payload any) error
	// On registers h for event and returns a function that removes it.
	// The returned function is safe to call more than once.
	On(event string, h Handler) (off func())
}

// Request is the payload of RequestEvent.
type Request struct {
	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	Payload     any    `json:"payload"`
	Deadline    string `json:"deadline"`
}

// SignedEvent is the event name carrying the signed artifact for a node.
func SignedEvent(executionID, nodeID string) string {
	return fmt.Sprintf("signed:%s:%s", executionID, nodeID)
}

// ErrorEvent is the event name carrying a signer-side failure for a node.
func ErrorEvent(executionID, nodeID string) string {
	return fmt.Sprintf("signing_error:%s:%s", executionID, nodeID)
}

// Decode converts a loosely typed event payload (a map off the wire, a JSON
// string, raw bytes) into v.
func Decode(payload any, v any) error {
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case string:
		if json.Valid([]byte(p)) {
			data = []byte(p)
		} else {
			quoted, err := json.Marshal(p)
			if err != nil {
				return err
			}
			data = quoted
		}
	default:
		var err error
		if data, err = json.Marshal(p); err != nil {
			return fmt.Errorf("encoding signing payload: %w", err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding signing payload: %w", err)
	}
	return nil
}

// Fanout combines channels: Emit publishes on every channel, On listens on
// every channel. It lets one run accept signatures over more than one
// transport.
func Fanout(chs ...Channel) Channel {
	if len(chs) == 1 {
		return chs[0]
	}
	return fanout(chs)
}

type fanout []Channel

// Emit succeeds when at least one channel accepted the event.
func (f fanout) Emit(event string, payload any) error {
	var errs []error
	for _, ch := range f {
		if err := ch.Emit(event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(f) && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (f fanout) On(event string, h Handler) func() {
	offs := make([]func(), 0, len(f))
	for _, ch := range f {
		offs = append(offs, ch.On(event, h))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
