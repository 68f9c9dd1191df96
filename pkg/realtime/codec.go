package realtime

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec decodes a binary frame into a structural value.
//
// Text frames are always JSON; binary frames go through the Session's
// binary codec, which defaults to JSON as well.
type Codec interface {
	Unmarshal(data []byte, v any) error
}

// JSONCodec decodes frames as UTF-8 JSON.
type JSONCodec struct{}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// MsgpackCodec decodes binary frames encoded with MessagePack.
type MsgpackCodec struct{}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
