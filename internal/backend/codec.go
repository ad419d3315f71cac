package backend

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const codecNameJSON = "json"

// jsonCodec sends plain Go structs as compact JSON and decodes replies into
// protobuf well-known types, so the backend never has to speak protobuf.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return codecNameJSON
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	m, ok := msg.(proto.Message)
	if !ok {
		return errors.Newf("json codec: cannot decode a reply into %T", msg)
	}
	if len(data) == 0 {
		proto.Reset(m)
		return nil
	}
	return protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(data, m)
}
