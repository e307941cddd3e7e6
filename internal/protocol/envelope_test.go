package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Full(t *testing.T) {
	env, err := Decode([]byte(`{"@":"signin","#":{"nickname":"alice"},"$":"tok"}`))
	require.NoError(t, err)
	assert.Equal(t, "signin", env.Event)
	assert.Equal(t, "tok", env.Token)
	assert.True(t, env.HasPayload())
	assert.JSONEq(t, `{"nickname":"alice"}`, string(env.Payload))
}

func TestDecode_NullPayloadAndNoToken(t *testing.T) {
	env, err := Decode([]byte(`{"@":"online list","#":null}`))
	require.NoError(t, err)
	assert.Equal(t, "online list", env.Event)
	assert.Empty(t, env.Token)
	assert.False(t, env.HasPayload())
}

func TestDecode_StringPayload(t *testing.T) {
	env, err := Decode([]byte(`{"@":"system","#":"hi"}`))
	require.NoError(t, err)
	assert.True(t, env.HasPayload())
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{"", "not json", "[1,2]", `"text"`} {
		_, err := Decode([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedEnvelope, "input %q", in)
	}
}

func TestDecode_FieldErrors(t *testing.T) {
	_, err := Decode([]byte(`{"#":5}`))
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, FieldError{Path: "@", Reason: ReasonMissing})
	assert.Contains(t, fieldErrs, FieldError{Path: "#", Reason: ReasonWrongType})
}

func TestDecode_WrongTokenType(t *testing.T) {
	_, err := Decode([]byte(`{"@":"signin","#":{},"$":7}`))
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, FieldErrors{{Path: "$", Reason: ReasonWrongType}}, fieldErrs)
}

func TestEncode_OmitsNilPayload(t *testing.T) {
	data, err := Encode("success", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"@":"success"}`, string(data))

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &keys))
	_, hasPayload := keys["#"]
	assert.False(t, hasPayload, `"#" key must be omitted, not null`)
}

func TestEncode_RoundTrip(t *testing.T) {
	data, err := Encode("new_message", map[string]string{"text": "hi"})
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "new_message", env.Event)
	assert.JSONEq(t, `{"text":"hi"}`, string(env.Payload))
}

func TestEncode_NilPayloadRoundTrip(t *testing.T) {
	data, err := Encode("success", nil)
	require.NoError(t, err)

	// a success envelope is not a valid inbound message ("#" is required
	// inbound), but the payload must still read back as absent
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "#")
}

func TestEncodeError(t *testing.T) {
	data, err := EncodeError("invalid_data", "неверный пароль")
	require.NoError(t, err)
	assert.JSONEq(t, `{"!":"invalid_data","#":"неверный пароль"}`, string(data))

	data, err = EncodeError("unauthorized", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"!":"unauthorized"}`, string(data))
}
