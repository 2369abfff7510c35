// Package progress correlates frames received from the shared publish/subscribe connection
// with the remote jobs they report on.
//
// Frames carry a destination of the form /topic/{job_id}.{worker}[.{subtopic}].progress and
// a body that is either JSON or a log line "HH:MM:SS - LEVEL - " followed by JSON.
// Listeners are synchronous state machines: they never block, and any frame they cannot
// make sense of is dropped rather than surfaced.
package progress

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tinarmengineering/ltc/pkg/api"
)

const (
	HeaderDestination  = "destination"
	HeaderSubscription = "subscription"

	TopicPrefix = "/topic/"
)

// Frame is one message delivered by the shared connection.
type Frame struct {
	Headers map[string]string
	Body    []byte
}

func (f *Frame) Destination() string {
	return f.Headers[HeaderDestination]
}

// Subscription returns the subscription id header and whether it was present.
func (f *Frame) Subscription() (string, bool) {
	id, ok := f.Headers[HeaderSubscription]
	return id, ok
}

// Payload is the decoded JSON object carried by a frame.
type Payload map[string]interface{}

// Progress returns the done/total pair of a fractional progress payload.
func (p Payload) Progress() (done, total float64, ok bool) {
	d, hasDone := p["done"].(float64)
	t, hasTotal := p["total"].(float64)
	if !hasDone || !hasTotal {
		return 0, 0, false
	}
	return d, t, true
}

// Status returns the status of a status payload, which may be given as a code or a name.
func (p Payload) Status() (api.JobStatus, bool) {
	v, ok := p["status"]
	if !ok {
		return 0, false
	}
	status, err := api.JobStatusFromValue(v)
	if err != nil {
		return 0, false
	}
	return status, true
}

var logLinePrefix = regexp.MustCompile(`(?s)^\s*(\S+) - (\S+) - (.*)$`)

// ParseBody decodes a frame body. A body that is not JSON as a whole but has the form
// "<time> - <level> - <json>" has the log prefix stripped.
func ParseBody(body []byte) (Payload, error) {
	payload, err := decodePayload(body)
	if err != nil {
		m := logLinePrefix.FindSubmatch(body)
		if m == nil {
			return nil, &ErrMalformedFrame{Body: string(body), Err: err}
		}
		if payload, err = decodePayload(m[3]); err != nil {
			return nil, &ErrMalformedFrame{Body: string(body), Err: err}
		}
	}
	if payload == nil {
		return nil, &ErrMalformedFrame{Body: string(body), Message: "payload is not a JSON object"}
	}
	return payload, nil
}

func decodePayload(raw []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(bytes.TrimSpace(raw), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ExtractEntityID splits a destination "/topic/{id}.{remainder}" into the entity id and the
// remainder after the first '.'.
func ExtractEntityID(destination string) (id string, remainder string, err error) {
	rest := strings.TrimPrefix(destination, TopicPrefix)
	if rest == destination {
		return "", "", &ErrMalformedDestination{Destination: destination, Message: "missing " + TopicPrefix + " prefix"}
	}
	id, remainder, _ = strings.Cut(rest, ".")
	if id == "" {
		return "", "", &ErrMalformedDestination{Destination: destination, Message: "no entity id"}
	}
	return id, remainder, nil
}

// Worker returns the worker or stage segment of a destination, e.g. "solver" for
// /topic/{id}.solver.mesh.progress.
func Worker(destination string) string {
	_, remainder, err := ExtractEntityID(destination)
	if err != nil {
		return ""
	}
	worker, _, _ := strings.Cut(remainder, ".")
	return worker
}
