// Package event implements the live-update fan-out: every mutation publishes
// one event and every connected observer receives the same ordered stream.
package event

import "encoding/json"

// Kind identifies what changed. Payload shapes follow the kind.
type Kind string

const (
	KindDisasterCreated    Kind = "disaster_created"
	KindDisasterUpdated    Kind = "disaster_updated"
	KindDisasterDeleted    Kind = "disaster_deleted"
	KindResourcesUpdated   Kind = "resources_updated"
	KindSocialMediaUpdated Kind = "social_media_updated"
)

// Event is an ephemeral broadcast message. Payload is marshaled once at
// publish time so every observer sees identical bytes; events are never
// persisted or replayed to late joiners.
type Event struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// New marshals payload and wraps it in an Event. A payload that fails to
// marshal yields an event with a null payload rather than an error; event
// construction must never fail a mutation that already persisted.
func New(kind Kind, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = json.RawMessage("null")
	}
	return Event{Kind: kind, Payload: raw}
}
