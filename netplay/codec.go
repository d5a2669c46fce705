package netplay

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns bus messages into frames and back.
type Codec interface {
	Marshal(Message) ([]byte, error)
	Unmarshal([]byte) (Message, error)
}

// JSONCodec is used where frames are read by people or browsers.
type JSONCodec struct{}

func (JSONCodec) Marshal(m Message) ([]byte, error) {
	return json.Marshal(m)
}

func (JSONCodec) Unmarshal(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode json message: %w", err)
	}
	return m, nil
}

// MsgpackCodec is the compact encoding used on the Redis bus.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(m Message) ([]byte, error) {
	return msgpack.Marshal(&m)
}

func (MsgpackCodec) Unmarshal(data []byte) (Message, error) {
	var m Message
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode msgpack message: %w", err)
	}
	return m, nil
}
