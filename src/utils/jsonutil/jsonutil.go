package jsonutil

import "encoding/json"

// Convert re-marshals v into T. Used to coerce loosely typed payloads
// (map[string]interface{} and friends) into protocol structs.
func Convert[T any](v any) (T, error) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Decode unmarshals raw into T. A nil or JSON-null payload yields the
// zero value with ok=false; malformed JSON also reports ok=false so
// callers can drop the payload instead of crashing the listing.
func Decode[T any](raw json.RawMessage) (T, bool) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

// Marshal is a convenience wrapper that swallows marshal errors into a
// nil RawMessage. Only for payloads built from types that cannot fail.
func Marshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
