package workforge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 6, 10, 9, 30, 15, 123000000, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"iso with millis", `"2024-06-10T09:30:15.123Z"`, want},
		{"rfc3339 offset", `"2024-06-10T11:30:15.123+02:00"`, want},
		{"epoch millis", "1718011815123", want},
		{"date only", `"2024-06-10"`, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"empty", ``, time.Time{}},
		{"null", `null`, time.Time{}},
		{"garbage", `"next tuesday"`, time.Time{}},
		{"empty string", `""`, time.Time{}},
		{"negative", `-5`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(json.RawMessage(tt.raw))
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestMessageDecoding_NormalizesIdentifiersAndSender(t *testing.T) {
	raw := []byte(`{"messages": [
		{"_id": "m1", "senderId": "u1", "recipientId": "u2", "content": "hi", "timestamp": "2024-06-10T09:00:00.000Z"},
		{"id": "m2", "senderId": {"_id": "u3", "name": "Helen", "role": "HR"}, "recipientId": {"id": "u2"}, "content": "ok", "read": true},
		{"_id": "m3", "sender": {"_id": "u4", "firstName": "Bo", "lastName": "Li"}, "recipientId": "u2", "createdAt": "2024-06-11T00:00:00Z"}
	]}`)

	docs, err := decodeList[Message](raw, nil, "messages")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	m1 := messageToModel(docs[0])
	assert.Equal(t, "m1", m1.ID)
	assert.Equal(t, "u1", m1.SenderID)
	assert.Empty(t, m1.SenderName)
	assert.False(t, m1.Timestamp.IsZero())

	m2 := messageToModel(docs[1])
	assert.Equal(t, "m2", m2.ID)
	assert.Equal(t, "u3", m2.SenderID)
	assert.Equal(t, "Helen", m2.SenderName)
	assert.Equal(t, "HR", m2.SenderRole)
	assert.Equal(t, "u2", m2.RecipientID)
	assert.True(t, m2.Read)
	assert.True(t, m2.Timestamp.IsZero())

	m3 := messageToModel(docs[2])
	assert.Equal(t, "u4", m3.SenderID)
	assert.Equal(t, "Bo Li", m3.SenderName)
	assert.Equal(t, 11, m3.Timestamp.Day(), "falls back to createdAt")
}

func TestDecodeList_BareArrayAndUnknownWrapper(t *testing.T) {
	users, err := decodeList[User]([]byte(`[{"_id":"a"},{"id":"b"}]`), nil)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].Key())
	assert.Equal(t, "b", users[1].Key())

	users, err = decodeList[User]([]byte(`{"total": 0}`), nil, "employees")
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = decodeList[User]([]byte(`{"employees": "nope"}`), nil, "employees")
	assert.Error(t, err)
}

func TestDecodeList_SkipsMalformedDocuments(t *testing.T) {
	raw := []byte(`[
		{"_id": "m1", "senderId": "u1", "recipientId": "u2", "content": "hi"},
		{"_id": "m2", "senderId": "u1", "recipientId": "u2", "content": {"text": "hi"}}
	]`)

	var skipped []int
	docs, err := decodeList[Message](raw, func(i int, _ error) { skipped = append(skipped, i) }, "messages")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "m1", docs[0].Key())
	assert.Equal(t, []int{1}, skipped)
}

func TestMessageDecoding_DefaultsOddFieldTypes(t *testing.T) {
	raw := []byte(`[
		{"_id": "m1", "senderId": 42, "recipientId": "u2", "content": "a", "read": "false"},
		{"_id": "m2", "senderId": "u1", "recipientId": 7, "content": "b", "read": "true"},
		{"_id": "m3", "senderId": ["u1"], "recipientId": "u2", "content": "c", "read": 1}
	]`)

	docs, err := decodeList[Message](raw, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	m1 := messageToModel(docs[0])
	assert.Equal(t, "42", m1.SenderID)
	assert.False(t, m1.Read)

	m2 := messageToModel(docs[1])
	assert.Equal(t, "7", m2.RecipientID)
	assert.True(t, m2.Read)

	m3 := messageToModel(docs[2])
	assert.Empty(t, m3.SenderID)
	assert.True(t, m3.Read)
}

func TestDecodeObject_Wrapped(t *testing.T) {
	var u User
	require.NoError(t, decodeObject([]byte(`{"user": {"_id": "u1", "name": "Ann"}}`), &u, "user"))
	assert.Equal(t, "u1", u.Key())

	u = User{}
	require.NoError(t, decodeObject([]byte(`{"_id": "u2", "user": {"_id": "nested"}}`), &u, "user"))
	assert.Equal(t, "u2", u.Key())
}

func TestUserDepartmentName(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"1","department":{"name":"Finance"}}`), &u))
	assert.Equal(t, "Finance", u.DepartmentName())

	require.NoError(t, json.Unmarshal([]byte(`{"_id":"1","department":"Ops"}`), &u))
	assert.Equal(t, "Ops", u.DepartmentName())
}
