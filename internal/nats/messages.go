package nats

import (
	"encoding/json"
	"fmt"
)

// SubjectPrefix is the root of every sensorsim subject.
const SubjectPrefix = "sensorsim"

// SubjectEvent returns the subject an event is published on.
func SubjectEvent(device, event string) string {
	return fmt.Sprintf("%s.%s.events.%s", SubjectPrefix, device, event)
}

// SubjectControl returns the request subject for a control action.
func SubjectControl(device, action string) string {
	return fmt.Sprintf("%s.%s.control.%s", SubjectPrefix, device, action)
}

// Control actions.
const (
	ActionInfo   = "info"
	ActionStream = "stream"
	ActionSet    = "set"
)

// StreamRequest starts or stops streaming.
type StreamRequest struct {
	Enable bool `json:"enable"`
}

// SetControlRequest sets one control by name.
type SetControlRequest struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Reply answers every control request.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Marshal serializes the reply to JSON.
func (r Reply) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalReply deserializes a Reply, decoding Data into data when non-nil.
func UnmarshalReply(raw []byte, data any) (Reply, error) {
	var wire struct {
		OK    bool            `json:"ok"`
		Error string          `json:"error"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Reply{}, err
	}
	r := Reply{OK: wire.OK, Error: wire.Error}
	if data != nil && len(wire.Data) > 0 {
		if err := json.Unmarshal(wire.Data, data); err != nil {
			return r, err
		}
		r.Data = data
	}
	return r, nil
}
