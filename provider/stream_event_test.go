package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/underline-app/coauthor/pkg/uuidx"
)

func TestChunkRoundTrip(t *testing.T) {
	orig := Chunk{
		RunID:     uuidx.New(),
		Delta:     " cat",
		Content:   "The cat",
		Timestamp: strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := orig.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "chunk", gjson.GetBytes(data, "type").String())

	var got Chunk
	require.NoError(t, got.UnmarshalJSON(data))
	assert.Equal(t, orig.RunID, got.RunID)
	assert.Equal(t, orig.Delta, got.Delta)
	assert.Equal(t, orig.Content, got.Content)
}

func TestResponseRoundTrip(t *testing.T) {
	orig := Response{RunID: uuidx.New(), Content: "The cat sat."}

	data, err := orig.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "response", gjson.GetBytes(data, "type").String())

	var got Response
	require.NoError(t, got.UnmarshalJSON(data))
	assert.Equal(t, orig.RunID, got.RunID)
	assert.Equal(t, orig.Content, got.Content)
}

func TestErrorRoundTrip(t *testing.T) {
	orig := Error{RunID: uuidx.New(), Err: errors.New("server overloaded")}

	data, err := orig.MarshalJSON()
	require.NoError(t, err)

	var got Error
	require.NoError(t, got.UnmarshalJSON(data))
	assert.Equal(t, orig.RunID, got.RunID)
	assert.EqualError(t, got.Err, "server overloaded")
}

func TestUnmarshalRejectsWrongType(t *testing.T) {
	var c Chunk
	err := c.UnmarshalJSON([]byte(`{"type":"response","run_id":"x","content":"y"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 'chunk'")
}

func TestUnmarshalRejectsInvalidJSON(t *testing.T) {
	var d Delim
	require.Error(t, d.UnmarshalJSON([]byte(`{not json`)))
}

func TestFromJSONDispatch(t *testing.T) {
	tests := []struct {
		name  string
		event StreamEvent
	}{
		{name: "delim", event: Delim{RunID: uuidx.New(), Delim: "start"}},
		{name: "chunk", event: Chunk{RunID: uuidx.New(), Delta: "a", Content: "a"}},
		{name: "response", event: Response{RunID: uuidx.New(), Content: "done"}},
		{name: "error", event: Error{RunID: uuidx.New(), Err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ToJSON(tt.event)
			require.NoError(t, err)

			got, err := FromJSON(data)
			require.NoError(t, err)
			assert.IsType(t, tt.event, got)
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := FromJSON([]byte(`{"type":"nope"}`))
		require.Error(t, err)
	})
}

func TestRequestError(t *testing.T) {
	err := &RequestError{Status: 500, Message: "server overloaded"}
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "server overloaded")

	withDetails := &RequestError{Status: 402, Message: "payment required", Details: "upgrade at /billing"}
	assert.Contains(t, withDetails.Error(), "upgrade at /billing")
}
