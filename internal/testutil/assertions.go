package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies error response with expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	// Error responses are plain text in this API
	assert.Contains(t, string(body), expectedMessage, "error message mismatch")
}

// AssertDetectiveView verifies what a detective is allowed to see: their own
// role and the witness, nothing else, and no accusation.
func AssertDetectiveView(t *testing.T, m *domain.Match, viewerUserID uuid.UUID) {
	t.Helper()

	if m.Phase.IsTerminal() {
		return
	}
	for _, p := range m.Players {
		switch {
		case p.UserID == viewerUserID:
			assert.Equal(t, domain.RoleDetective, p.Role, "viewer should see their own role")
		case p.Role == domain.RoleWitness:
		default:
			assert.Empty(t, p.Role, "role of %s should be hidden", p.DisplayName)
		}
	}
	assert.Nil(t, m.AccusedMeasure, "accused measure should be hidden")
	assert.Nil(t, m.AccusedClue, "accused clue should be hidden")
}
