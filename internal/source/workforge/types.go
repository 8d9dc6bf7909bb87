package workforge

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Identified carries the backend's two identifier spellings. Documents
// come back with "_id"; some serializers also add "id".
type Identified struct {
	MongoID string `json:"_id,omitempty"`
	ID      string `json:"id,omitempty"`
}

// Key returns whichever identifier is present, preferring "_id".
func (i Identified) Key() string {
	if i.MongoID != "" {
		return i.MongoID
	}
	return i.ID
}

// User is a user document as embedded in messages or returned by the
// roster and profile endpoints.
type User struct {
	Identified
	Name       string          `json:"name"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
	Email      string          `json:"email"`
	Role       string          `json:"role"`
	Department json.RawMessage `json:"department,omitempty"`
}

// DisplayName returns the best available human-readable name.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Email
}

// DepartmentName accepts either a plain string or a {"name": ...} object.
func (u User) DepartmentName() string {
	return stringOrName(u.Department)
}

// UserRef is a field that holds either a bare user ID or an embedded
// user document.
type UserRef struct {
	ID   string
	User *User
}

// UnmarshalJSON implements json.Unmarshaler. Numeric ids are kept as
// their decimal text; arrays and booleans leave the reference empty.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch c := data[0]; {
	case c == '"':
		return json.Unmarshal(data, &r.ID)
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		r.ID = n.String()
		return nil
	case c != '{':
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	r.User = &u
	r.ID = u.Key()
	return nil
}

// MarshalJSON writes the bare ID.
func (r UserRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// Message is a message document.
type Message struct {
	Identified
	SenderID    UserRef         `json:"senderId"`
	Sender      *UserRef        `json:"sender,omitempty"`
	RecipientID UserRef         `json:"recipientId"`
	Content     string          `json:"content"`
	Timestamp   json.RawMessage `json:"timestamp,omitempty"`
	CreatedAt   json.RawMessage `json:"createdAt,omitempty"`
	Read        Flag            `json:"read"`
}

// Flag is a boolean that also accepts "true"/"false" strings and 0/1.
// Anything else decodes as false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.ToLower(string(bytes.TrimSpace(data))), `"`) {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// Announcement is an announcement-board document.
type Announcement struct {
	Identified
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Author    json.RawMessage `json:"author,omitempty"`
	Priority  string          `json:"priority"`
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
}

// SendMessageRequest is the body of POST /api/messages.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 strings and epoch milliseconds. Absent,
// null and unparseable values yield the zero time.
func ParseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil || ms <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// stringOrName reads "x" or {"name": "x"}.
func stringOrName(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var u User
	if json.Unmarshal(raw, &u) == nil {
		return u.DisplayName()
	}
	return ""
}

// decodeList accepts a bare JSON array or an object wrapping the array
// under one of keys. Elements are decoded one by one; an element that
// does not decode is reported to skip and left out.
func decodeList[T any](data []byte, skip func(index int, err error), keys ...string) ([]T, error) {
	raws, err := listElements(data, keys...)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			if skip != nil {
				skip(i, err)
			}
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func listElements(data []byte, keys ...string) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, err
		}
		return raws, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	for _, k := range append(keys, "data", "items") {
		if inner, ok := wrapper[k]; ok {
			return listElements(inner)
		}
	}
	return nil, nil
}

// decodeObject accepts a bare object or one wrapped under one of keys.
// A wrapper is detected by the absence of an identifier at the top level.
func decodeObject(data []byte, out interface{}, keys ...string) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	_, hasMongoID := probe["_id"]
	_, hasID := probe["id"]
	if !hasMongoID && !hasID {
		for _, k := range append(keys, "data") {
			if inner, ok := probe[k]; ok && len(bytes.TrimSpace(inner)) > 0 && bytes.TrimSpace(inner)[0] == '{' {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(data, out)
}
