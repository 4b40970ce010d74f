package hub

import "encoding/json"

// Kind is the websocket frame type a Message is written as.
type Kind int

const (
	Text Kind = iota
	Binary
)

// Message is one outbound websocket frame.
type Message struct {
	Kind Kind
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON as a text frame.
func NewJSONMessage(data []byte) Message {
	return Message{Kind: Text, Data: data}
}

// NewBinaryMessage wraps data as a binary frame.
func NewBinaryMessage(data []byte) Message {
	return Message{Kind: Binary, Data: data}
}

// Marshal encodes v as a JSON text frame.
func Marshal(v interface{}) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
