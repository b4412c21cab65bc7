package manifest

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that remembers the order of its keys. Rule
// messages list offenders in manifest order, which a Go map would lose.
// The zero value is an empty object.
type Object struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

func (o *Object) UnmarshalJSON(b []byte) error {
	m := orderedmap.New[string, json.RawMessage]()

	err := m.UnmarshalJSON(b)
	if err != nil {
		return fmt.Errorf("decode object: %w", err)
	}

	o.m = m

	return nil
}

func (o Object) MarshalJSON() ([]byte, error) {
	if o.m == nil {
		return []byte("{}"), nil
	}

	b, err := o.m.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode object: %w", err)
	}

	return b, nil
}

// ObjectOf builds an [Object] from alternating key/value pairs. Values are
// JSON-encoded.
func ObjectOf(kv ...any) Object {
	m := orderedmap.New[string, json.RawMessage](orderedmap.WithCapacity[string, json.RawMessage](len(kv) / 2))

	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}

		raw, err := json.Marshal(kv[i+1])
		if err != nil {
			continue
		}

		m.Set(k, raw)
	}

	return Object{m: m}
}

func (o Object) get(key string) (json.RawMessage, bool) {
	if o.m == nil {
		return nil, false
	}

	return o.m.Get(key)
}

// Keys returns the keys in document order.
func (o Object) Keys() []string {
	if o.m == nil {
		return nil
	}

	keys := make([]string, 0, o.m.Len())
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}

	return keys
}

func (o Object) Len() int {
	if o.m == nil {
		return 0
	}

	return o.m.Len()
}

func (o Object) Has(key string) bool {
	_, ok := o.get(key)
	return ok
}

// Raw returns the undecoded value for key.
func (o Object) Raw(key string) (json.RawMessage, bool) {
	return o.get(key)
}

// String returns the value for key if it is a JSON string.
func (o Object) String(key string) (string, bool) {
	raw, ok := o.get(key)
	if !ok {
		return "", false
	}

	return asString(raw)
}

// Object returns the value for key if it is a JSON object.
func (o Object) Object(key string) (Object, bool) {
	raw, ok := o.get(key)
	if !ok {
		return Object{}, false
	}

	return asObject(raw)
}

// Strings returns the value for key if it is an array, keeping only its
// string elements.
func (o Object) Strings(key string) []string {
	raw, ok := o.get(key)
	if !ok {
		return nil
	}

	return asStrings(raw)
}

// Bool reports whether the value for key is JSON true.
func (o Object) Bool(key string) bool {
	raw, ok := o.get(key)
	if !ok {
		return false
	}

	var b bool

	return json.Unmarshal(raw, &b) == nil && b
}

// Truthy reports whether the value for key is set to anything other than
// false, null, 0 or "".
func (o Object) Truthy(key string) bool {
	raw, ok := o.get(key)
	if !ok {
		return false
	}

	var v any
	if json.Unmarshal(raw, &v) != nil {
		return false
	}

	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}

	return true
}

// Any decodes the object into plain Go values.
func (o Object) Any() map[string]any {
	out := make(map[string]any, o.Len())
	if o.m == nil {
		return out
	}

	for p := o.m.Oldest(); p != nil; p = p.Next() {
		var v any
		if json.Unmarshal(p.Value, &v) == nil {
			out[p.Key] = v
		}
	}

	return out
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}

	return s, true
}

func asObject(raw json.RawMessage) (Object, bool) {
	var obj Object
	if obj.UnmarshalJSON(raw) != nil {
		return Object{}, false
	}

	return obj, true
}

func asStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asString(item); ok {
			out = append(out, s)
		}
	}

	return out
}
