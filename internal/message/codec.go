package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the wire format for message timestamps, carried as UTC
// wall-clock text. Both sides must produce and parse exactly this layout;
// round-trip equality holds at second precision.
const TimeLayout = "2006-01-02 15:04:05"

// DecodeError reports a frame that could not be turned into a Message.
// The relay drops the frame and keeps the connection alive.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode message: %s: %v", e.Reason, e.Err)
	}
	return "decode message: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wireMessage is the JSON shape of one frame. Extra keys sent by a peer are
// ignored on decode.
type wireMessage struct {
	Type      string `json:"type"`
	Sender    string `json:"sender,omitempty"`
	Receiver  string `json:"receiver,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	ID        string `json:"id,omitempty"`
}

// Encode serializes a message into one newline-terminated frame.
func Encode(m *Message) ([]byte, error) {
	w := wireMessage{
		Type:      string(m.Type),
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Content:   m.Content,
		Timestamp: m.Timestamp.UTC().Format(TimeLayout),
		ID:        m.ID,
	}

	frame, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return append(frame, '\n'), nil
}

// Decode parses one frame back into a Message. It is pure: a failure
// returns a *DecodeError and has no other effect.
func Decode(frame []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(bytes.TrimSpace(frame), &w); err != nil {
		return nil, &DecodeError{Reason: "malformed frame", Err: err}
	}

	t := Type(w.Type)
	if _, ok := knownTypes[t]; !ok {
		if w.Type == "" {
			return nil, &DecodeError{Reason: "missing type"}
		}
		return nil, &DecodeError{Reason: fmt.Sprintf("unrecognized type %q", w.Type)}
	}

	m := &Message{
		Type:     t,
		Sender:   w.Sender,
		Receiver: w.Receiver,
		Content:  w.Content,
		ID:       w.ID,
	}

	if w.Timestamp != "" {
		ts, err := time.Parse(TimeLayout, w.Timestamp)
		if err != nil {
			return nil, &DecodeError{Reason: "bad timestamp", Err: err}
		}
		m.Timestamp = ts
	}

	return m, nil
}

// EncodeUserList serializes a username snapshot for a USER_LIST payload.
func EncodeUserList(usernames []string) string {
	if usernames == nil {
		usernames = []string{}
	}
	content, _ := json.Marshal(usernames)
	return string(content)
}

// DecodeUserList parses a USER_LIST payload back into usernames.
func DecodeUserList(content string) ([]string, error) {
	var usernames []string
	if err := json.Unmarshal([]byte(content), &usernames); err != nil {
		return nil, &DecodeError{Reason: "bad user list payload", Err: err}
	}
	return usernames, nil
}
