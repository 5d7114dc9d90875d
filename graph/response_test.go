package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode(t *testing.T) {
	var node Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1234"}`), &node))

	assert.Equal(t, "1234", node.ID)
	assert.False(t, node.HasAPIError())
	assert.Empty(t, node.APIErrorMessage())
	assert.Zero(t, node.APIErrorCode())
}

func TestEnvelopeAccessors(t *testing.T) {
	payload := `{"error":{"type":"OAuthException","message":"Invalid token","code":190,"error_user_msg":"Please reconnect"}}`

	var node Node
	require.NoError(t, json.Unmarshal([]byte(payload), &node))

	assert.True(t, node.HasAPIError())
	assert.Equal(t, "OAuthException", node.APIErrorType())
	assert.Equal(t, "Invalid token", node.APIErrorMessage())
	assert.Equal(t, 190, node.APIErrorCode())
	assert.Equal(t, "Please reconnect", node.APIErrorUserMessage())
	assert.True(t, node.Error.IsUnauthorized())
}

func TestNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{`5`, 5},
		{`"5"`, 5},
		{`"12.5"`, 12.5},
		{`""`, 0},
		{`null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.expected, n.Float())
		})
	}

	var n Number
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &n))
}

func TestPaging(t *testing.T) {
	var page Page[Node]
	payload := `{"data":[{"id":"1"},{"id":"2"}],"paging":{"cursors":{"before":"b","after":"a"},"next":"https://graph/next"},"summary":{"total_count":2}}`
	require.NoError(t, json.Unmarshal([]byte(payload), &page))

	assert.Len(t, page.Data, 2)
	assert.True(t, page.Paging.HasNext())
	assert.EqualValues(t, 2, page.Summary["total_count"])

	cursor, err := page.Paging.NextCursor()
	require.NoError(t, err)
	assert.Equal(t, "a", cursor)

	_, err = Paging{}.NextCursor()
	assert.ErrorIs(t, err, ErrNoMorePages)
}
