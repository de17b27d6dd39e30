package services

import (
	"encoding/json"
	"io"
)

// DecodeJSON decodes one JSON value from r, rejecting unknown fields.
func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
