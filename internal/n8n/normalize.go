package n8n

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/chazuruo/n8n-backup/internal/resource"
)

var emptyList = json.RawMessage("[]")

// Listing is a normalized resource collection.
type Listing struct {
	// Items are the records of the collection. len(Items) is the count
	// reported in the manifest.
	Items []Record
	// Body is the payload written to the aggregate file.
	Body json.RawMessage
}

// Count returns the number of records.
func (l Listing) Count() int { return len(l.Items) }

// Normalize turns a list response into a Listing. The envelope is
// resolved by one ordered chain:
//
//  1. empty or falsy body: empty list
//  2. array: its elements
//  3. object with an array "data" field: the elements of "data"
//  4. workflows, anything else: empty list
//  5. other kinds, anything else: the raw body is kept as the payload
//     and counts as zero records
//
// body must be valid JSON or empty.
func Normalize(kind resource.Kind, body json.RawMessage) Listing {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Listing{Body: emptyList}
	}

	root := gjson.ParseBytes(trimmed)
	if !truthy(root) {
		return Listing{Body: emptyList}
	}
	if root.IsArray() {
		return Listing{Items: records(root), Body: json.RawMessage(trimmed)}
	}
	if data := root.Get("data"); data.IsArray() {
		return Listing{Items: records(data), Body: json.RawMessage(data.Raw)}
	}
	if kind == resource.Workflows {
		return Listing{Body: emptyList}
	}
	return Listing{Body: json.RawMessage(trimmed)}
}

func records(arr gjson.Result) []Record {
	elems := arr.Array()
	items := make([]Record, 0, len(elems))
	for _, e := range elems {
		items = append(items, Record(e.Raw))
	}
	return items
}
