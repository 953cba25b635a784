package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// DecodeRequest decodes one request envelope. Truncated, empty, or
// non-map input fails; unknown keys are ignored.
func DecodeRequest(data []byte) (*Request, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty request frame")
	}
	var req Request
	if err := msgpack.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// Encode serializes any envelope into a msgpack map frame.
func Encode(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}
