package models

import (
	"bytes"
	"encoding/json"
	"slices"
)

// textField binds a JSON key to a string field
type textField struct {
	key       string
	value     *string
	omitEmpty bool
}

func (r *Report) textFields() []textField {
	return []textField{
		{key: "firNumber", value: &r.FIRNumber},
		{key: "dateTime", value: &r.DateTime, omitEmpty: true},
		{key: "category", value: &r.Category, omitEmpty: true},
		{key: "complaintType", value: &r.ComplaintType, omitEmpty: true},
		{key: "createdAt", value: &r.CreatedAt, omitEmpty: true},
	}
}

func (c *Complainant) textFields() []textField {
	return []textField{
		{key: "name", value: &c.Name},
		{key: "address", value: &c.Address},
		{key: "phone", value: &c.Phone},
		{key: "description", value: &c.Description},
	}
}

// UnmarshalJSON decodes a report without rejecting unexpected shapes
func (r *Report) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*r = Report{Raw: slices.Clone(json.RawMessage(trimmed))}
		return nil
	}

	var out Report
	extra, err := decodeObject(trimmed, out.textFields(), func(key string, raw json.RawMessage) bool {
		if key != "complainant" || !isObject(raw) {
			return false
		}
		return json.Unmarshal(raw, &out.Complainant) == nil
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*r = out
	return nil
}

// MarshalJSON writes the named fields in declaration order followed by Extra
func (r Report) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}

	fields := r.textFields()
	var w objectWriter
	w.text(fields[0], r.Extra)
	w.text(fields[1], r.Extra)

	if raw, ok := r.Extra["complainant"]; ok && r.Complainant.isZero() {
		w.field("complainant", raw)
	} else {
		enc, err := json.Marshal(r.Complainant)
		if err != nil {
			return nil, err
		}
		w.field("complainant", enc)
	}

	for _, f := range fields[2:] {
		w.text(f, r.Extra)
	}
	w.extra(r.Extra, fields, "complainant")
	return w.close(), nil
}

// UnmarshalJSON decodes a complainant, reading numeric phones as text
func (c *Complainant) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var out Complainant
	extra, err := decodeObject(trimmed, out.textFields(), nil)
	if err != nil {
		return err
	}
	out.Extra = extra
	*c = out
	return nil
}

// MarshalJSON writes the named fields followed by Extra
func (c Complainant) MarshalJSON() ([]byte, error) {
	fields := c.textFields()
	var w objectWriter
	for _, f := range fields {
		w.text(f, c.Extra)
	}
	w.extra(c.Extra, fields)
	return w.close(), nil
}

func (c Complainant) isZero() bool {
	return c.Name == "" && c.Address == "" && c.Phone == "" && c.Description == "" && len(c.Extra) == 0
}

// decodeObject fills fields from a JSON object. A text field holding anything
// other than a string keeps its original encoding in the returned extras so it
// can be written back as it was. other may claim additional keys.
func decodeObject(data []byte, fields []textField, other func(key string, raw json.RawMessage) bool) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	var extra map[string]json.RawMessage
	keep := func(key string, raw json.RawMessage) {
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = raw
	}

	for key, raw := range obj {
		if i := slices.IndexFunc(fields, func(f textField) bool { return f.key == key }); i >= 0 {
			text, isString := scalarText(raw)
			*fields[i].value = text
			if !isString {
				keep(key, raw)
			}
			continue
		}
		if other != nil && other(key, raw) {
			continue
		}
		keep(key, raw)
	}
	return extra, nil
}

// scalarText returns the text of a JSON scalar. Strings decode normally,
// numbers and booleans become their literal; null, objects and arrays are "".
func scalarText(raw json.RawMessage) (text string, isString bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
		return "", false
	case '{', '[', 'n':
		return "", false
	default:
		return string(raw), false
	}
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

type objectWriter struct {
	buf bytes.Buffer
	n   int
}

func (w *objectWriter) field(key string, raw []byte) {
	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	enc, _ := json.Marshal(key)
	w.buf.Write(enc)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
	w.n++
}

// text writes f, preferring its original encoding while the value is unchanged
func (w *objectWriter) text(f textField, extra map[string]json.RawMessage) {
	if raw, ok := extra[f.key]; ok {
		if text, _ := scalarText(raw); text == *f.value {
			w.field(f.key, raw)
			return
		}
	}
	if f.omitEmpty && *f.value == "" {
		return
	}
	enc, _ := json.Marshal(*f.value)
	w.field(f.key, enc)
}

// extra writes the keys not claimed by fields or skip, sorted
func (w *objectWriter) extra(extra map[string]json.RawMessage, fields []textField, skip ...string) {
	keys := make([]string, 0, len(extra))
	for key := range extra {
		if slices.Contains(skip, key) || slices.ContainsFunc(fields, func(f textField) bool { return f.key == key }) {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		w.field(key, extra[key])
	}
}

func (w *objectWriter) close() []byte {
	if w.n == 0 {
		return []byte("{}")
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}
