package manifest

import (
	"bytes"
	"encoding/json"

	"go.trai.ch/zerr"
)

// orderedObject is a JSON object that remembers key order. Values stay
// raw, so nested objects keep their own internal order untouched.
type orderedObject struct {
	keys   []string
	values map[string]json.RawMessage
}

func newOrderedObject() *orderedObject {
	return &orderedObject{values: make(map[string]json.RawMessage)}
}

func parseOrderedObject(data []byte) (*orderedObject, error) {
	obj := newOrderedObject()
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, zerr.New("expected a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, zerr.New("expected an object key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		obj.set(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

// set updates an existing key in place or appends a new one.
func (o *orderedObject) set(key string, value json.RawMessage) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *orderedObject) get(key string) (json.RawMessage, bool) {
	raw, ok := o.values[key]
	return raw, ok
}

// setString sets a string value.
func (o *orderedObject) setString(key, value string) {
	encoded, _ := json.Marshal(value)
	o.set(key, encoded)
}

// MarshalJSON renders the object with its remembered key order.
func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(o.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
