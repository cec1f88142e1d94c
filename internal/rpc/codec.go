// Package rpc exposes the group and auth services as Connect unary
// procedures. Messages are the plain structs from pkg/api carried by a JSON
// codec, so any Connect client (or curl) can call them.
package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// CodecName is the codec name sent in the Content-Type, application/json.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WithJSON makes handlers and clients speak the pkg/api JSON messages.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
