package n8n

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// UndefinedID is the identity of a record that carries neither "id" nor
// "_id". Files for such workflows are named "undefined-<slug>.json".
const UndefinedID = "undefined"

// Record is one loosely typed object returned by the API. It is kept as
// the raw JSON text so that re-serialization preserves the server's key
// order; fields are read on demand.
type Record json.RawMessage

// MarshalJSON emits the record verbatim.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores a copy of the raw value.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Get returns the top-level field key. Keys are plain field names.
func (r Record) Get(key string) gjson.Result {
	return gjson.GetBytes(r, key)
}

// ID resolves the record identity. The order is fixed: "id", then "_id",
// then the text of a null "id" ("null"), then UndefinedID. Non-string
// values are rendered as their JSON text, so a numeric id 42 becomes "42".
func (r Record) ID() string {
	for _, key := range []string{"id", "_id"} {
		if v := r.Get(key); v.Exists() && v.Type != gjson.Null {
			return stringify(v)
		}
	}
	if v := r.Get("id"); v.Exists() {
		return "null"
	}
	return UndefinedID
}

// RawID is the JSON form of ID: the "id" or "_id" value verbatim, so a
// numeric id stays numeric, otherwise ID as a JSON string.
func (r Record) RawID() json.RawMessage {
	for _, key := range []string{"id", "_id"} {
		if v := r.Get(key); v.Exists() && v.Type != gjson.Null {
			return json.RawMessage(v.Raw)
		}
	}
	quoted, _ := json.Marshal(r.ID())
	return quoted
}

// Name returns the display name, or "workflow-<id>" when the name is
// missing or falsy.
func (r Record) Name() string {
	if v := r.Get("name"); truthy(v) {
		return stringify(v)
	}
	return "workflow-" + r.ID()
}

// HasDetail reports whether the record already carries the structural
// fields of a full workflow: a truthy "nodes" and a truthy "connections".
func (r Record) HasDetail() bool {
	return truthy(r.Get("nodes")) && truthy(r.Get("connections"))
}

// Active reports the truthiness of the "active" field.
func (r Record) Active() bool {
	return truthy(r.Get("active"))
}

// UpdatedAt returns the raw "updatedAt" value, or nil when it is falsy.
func (r Record) UpdatedAt() json.RawMessage {
	v := r.Get("updatedAt")
	if !truthy(v) {
		return nil
	}
	return json.RawMessage(v.Raw)
}

// truthy mirrors the JSON-value truthiness the n8n API clients rely on:
// missing, null, false, 0 and "" are falsy; arrays and objects, even
// empty ones, are truthy.
func truthy(v gjson.Result) bool {
	if !v.Exists() {
		return false
	}
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	default:
		return true
	}
}

func stringify(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}
