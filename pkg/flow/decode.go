package flow

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decoder turns the JSON object returned by the oracle into a typed value.
type Decoder func(raw map[string]any) (any, error)

type validator interface {
	Validate() error
}

// DecodeAs returns a Decoder producing a T.
// Decoding is weakly typed so that "true" or a lone string still fit a bool
// or a slice. When *T implements Validate, it runs after decoding.
func DecodeAs[T any]() Decoder {
	return func(raw map[string]any) (any, error) {
		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &out,
			WeaklyTypedInput: true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("decode %T: %w", out, err)
		}
		if v, ok := any(&out).(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("validate %T: %w", out, err)
			}
		}
		return out, nil
	}
}
