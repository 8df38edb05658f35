package proto

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// gobCodec is a minimal google.golang.org/grpc/encoding.Codec. partyd has
// no protoc toolchain step in this build, so rather than hand-maintain a
// protobuf wire encoder it runs its hand-written message types (messages.go)
// through encoding/gob and forces every server to use this codec via
// grpc.ForceServerCodec. The RPC framing, streaming and status-code
// machinery is still the real grpc-go runtime; only the payload encoding
// differs from a protoc-generated service.
type gobCodec struct{}

const codecName = "gob"

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("proto: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("proto: gob decode: %w", err)
	}
	return nil
}

func (gobCodec) Name() string {
	return codecName
}

// Codec is the shared codec instance passed to grpc.ForceServerCodec.
var Codec encoding.Codec = gobCodec{}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
