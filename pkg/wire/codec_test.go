package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestRequestRoundTrip(t *testing.T) {
	id := uuid.New().String()
	frame, err := msgpack.Marshal(map[string]interface{}{
		"id":         id,
		"text":       "hello",
		"callback":   "/tmp/cb.sock",
		"model_id":   uint64(3),
		"ranked":     false,
		"priority":   "high",
		"max_tokens": uint32(128),
	})
	require.NoError(t, err)

	req, err := DecodeRequest(frame)
	require.NoError(t, err)
	require.Equal(t, "", req.MissingField())
	require.Equal(t, id, *req.ID)
	require.Equal(t, "hello", *req.Text)
	require.Equal(t, "/tmp/cb.sock", *req.Callback)
	require.Equal(t, uint64(3), *req.ModelID)
	require.False(t, *req.Ranked)
	require.Equal(t, "high", *req.Priority)
	require.Equal(t, uint32(128), *req.MaxTokens)
}

func TestRequestOptionalFieldsAbsent(t *testing.T) {
	frame, err := msgpack.Marshal(map[string]interface{}{
		"id":       "a",
		"text":     "hi",
		"callback": "/tmp/cb.sock",
	})
	require.NoError(t, err)

	req, err := DecodeRequest(frame)
	require.NoError(t, err)
	require.Equal(t, "", req.MissingField())
	require.Nil(t, req.ModelID)
	require.Nil(t, req.Ranked)
	require.Nil(t, req.Priority)
	require.Nil(t, req.MaxTokens)
}

func TestMissingFieldNamesFirstAbsentKey(t *testing.T) {
	cases := []struct {
		fields map[string]interface{}
		want   string
	}{
		{map[string]interface{}{"text": "x", "callback": "y"}, "id"},
		{map[string]interface{}{"id": "x", "callback": "y"}, "text"},
		{map[string]interface{}{"id": "x", "text": "y"}, "callback"},
		{map[string]interface{}{"id": "", "text": "y", "callback": "z"}, "id"},
	}
	for _, tc := range cases {
		frame, err := msgpack.Marshal(tc.fields)
		require.NoError(t, err)
		req, err := DecodeRequest(frame)
		require.NoError(t, err)
		require.Equal(t, tc.want, req.MissingField())
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	// Empty input.
	_, err := DecodeRequest(nil)
	require.Error(t, err)

	// Non-map input.
	frame, err := msgpack.Marshal("just a string")
	require.NoError(t, err)
	_, err = DecodeRequest(frame)
	require.Error(t, err)

	// Truncated map.
	frame, err = msgpack.Marshal(map[string]interface{}{"id": "a", "text": "hello world"})
	require.NoError(t, err)
	_, err = DecodeRequest(frame[:len(frame)/2])
	require.Error(t, err)
}

func TestResponseEnvelopes(t *testing.T) {
	ack, err := Encode(&Ack{ID: "a", Status: "accepted"})
	require.NoError(t, err)
	var ackMap map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(ack, &ackMap))
	require.Equal(t, "a", ackMap["id"])
	require.Equal(t, "accepted", ackMap["status"])

	errFrame, err := Encode(&ErrorFrame{ID: "b", Error: "queue_full", Code: 429})
	require.NoError(t, err)
	var errMap map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(errFrame, &errMap))
	require.Equal(t, "queue_full", errMap["error"])
	require.EqualValues(t, 429, errMap["code"])

	res, err := Encode(&Result{
		ID:            "c",
		ModelID:       2,
		ToolID:        "__chat__",
		ToolInputJSON: `["hi"]`,
		Priority:      "normal",
	})
	require.NoError(t, err)
	var resMap map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(res, &resMap))
	require.Equal(t, "__chat__", resMap["tool_id"])
	require.Equal(t, `["hi"]`, resMap["tool_input_json"])
	require.EqualValues(t, 2, resMap["model_id"])
	require.Equal(t, "normal", resMap["priority"])
}
