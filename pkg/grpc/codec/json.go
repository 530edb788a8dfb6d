// Package codec provides a JSON codec for gRPC. Clients select it with
// grpc.CallContentSubtype(codec.Name).
package codec

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const Name = "json"

func init() {
	encoding.RegisterCodec(JSON{})
}

// JSON marshals gRPC messages with encoding/json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSON) Name() string {
	return Name
}
