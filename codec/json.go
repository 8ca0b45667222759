package codec

import "encoding/json"

// JSON is a codec backed by encoding/json.
//
// The metadata artifact is a plain JSON array so that it stays readable and
// interoperable with the ingest pipeline's own JSON output.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }
