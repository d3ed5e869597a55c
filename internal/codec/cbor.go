package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Name is the gRPC content subtype of the codec.
const Name = "cbor"

var (
	// encMode uses Core Deterministic Encoding so equal snapshots produce equal bytes.
	//nolint:gochecknoglobals // Immutable encoder configuration shared by all callers.
	encMode cbor.EncMode
	// decMode ignores unknown fields so older binaries can read newer snapshots.
	//nolint:gochecknoglobals // Immutable decoder configuration shared by all callers.
	decMode cbor.DecMode
)

func init() { //nolint:gochecknoinits // Codec modes and gRPC registration must exist before first use.
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Ranks and other enums travel as names.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	// Keep sub-second precision of timestamps.
	encOptions.Time = cbor.TimeRFC3339Nano

	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	encoding.RegisterCodec(GRPCCodec{})
}

// Marshal encodes v to CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// GRPCCodec implements encoding.Codec for gRPC.
type GRPCCodec struct{}

// Marshal encodes a message. Protobuf messages keep their native encoding.
func (GRPCCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}

	data, err := Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal %T: %w", v, err)
	}

	return data, nil
}

// Unmarshal decodes a message. Protobuf messages keep their native encoding.
func (GRPCCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}

	if err := Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor unmarshal %T: %w", v, err)
	}

	return nil
}

// Name returns the content subtype.
func (GRPCCodec) Name() string {
	return Name
}
