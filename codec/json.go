package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
//   - Output is plain JSON; anything encoded with JSON can be decoded by
//     GoJSON and vice versa.
//   - Use this if you need the lowest-dependency option.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: This affects newly-created store files. Existing files are
// self-describing (they record the codec name in their footer) and are opened
// by selecting the appropriate codec by name.
var Default Codec = GoJSON{}
