package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dom/deception-server/internal/api/handlers"
	"github.com/dom/deception-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()
	req := testutil.CreateAuthenticatedRequest(t, method, url, body, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createRoom(t *testing.T, ts *testutil.TestServer, token, title string) handlers.RoomResponse {
	t.Helper()
	resp := do(t, "POST", ts.APIURL("/rooms"), handlers.CreateRoomRequest{Title: title}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var room handlers.RoomResponse
	testutil.AssertJSONResponse(t, resp, &room)
	return room
}

func TestRoomHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		token          string
		body           interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "successful creation",
			token:          token,
			body:           handlers.CreateRoomRequest{Title: "Old Manor"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var room handlers.RoomResponse
				testutil.AssertJSONResponse(t, resp, &room)
				assert.NotEmpty(t, room.ID)
				assert.Len(t, room.ShortCode, 6)
				assert.Equal(t, "Old Manor", room.Title)
				assert.Equal(t, user.ID.String(), room.HostID)
				assert.Nil(t, room.MatchID)
				require.Len(t, room.Members, 1)
				assert.Equal(t, user.DisplayName, room.Members[0].DisplayName)
			},
		},
		{
			name:           "unauthorized",
			token:          "",
			body:           handlers.CreateRoomRequest{},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, "POST", ts.APIURL("/rooms"), tt.body, tt.token)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestRoomHandler_Get(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	room := createRoom(t, ts, token, "Lighthouse")

	tests := []struct {
		name           string
		key            string
		expectedStatus int
	}{
		{name: "by id", key: room.ID, expectedStatus: http.StatusOK},
		{name: "by short code", key: room.ShortCode, expectedStatus: http.StatusOK},
		{name: "by lower case short code", key: strings.ToLower(room.ShortCode), expectedStatus: http.StatusOK},
		{name: "unknown", key: "ZZZZZZ", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, "GET", ts.APIURL("/rooms/"+tt.key), nil, token)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				var got handlers.RoomResponse
				testutil.AssertJSONResponse(t, resp, &got)
				assert.Equal(t, room.ID, got.ID)
			}
		})
	}
}

func TestRoomHandler_JoinLeaveReady(t *testing.T) {
	ts := testutil.NewTestServer(t)
	host, hostToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	guest, guestToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	room := createRoom(t, ts, hostToken, "Manor")

	resp := do(t, "POST", ts.APIURL("/rooms/"+room.ShortCode+"/join"), nil, guestToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var joined handlers.RoomResponse
	testutil.AssertJSONResponse(t, resp, &joined)
	require.Len(t, joined.Members, 2)
	assert.Equal(t, guest.ID.String(), joined.Members[1].UserID)

	resp = do(t, "POST", ts.APIURL("/rooms/"+room.ID+"/ready"), handlers.ReadyRequest{Ready: true}, guestToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ready handlers.RoomResponse
	testutil.AssertJSONResponse(t, resp, &ready)
	assert.True(t, ready.Members[1].IsReady)
	assert.False(t, ready.Members[0].IsReady)

	// the host leaves and the guest takes over
	resp = do(t, "POST", ts.APIURL("/rooms/"+room.ID+"/leave"), nil, hostToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var left handlers.RoomResponse
	testutil.AssertJSONResponse(t, resp, &left)
	assert.Equal(t, guest.ID.String(), left.HostID)

	resp = do(t, "POST", ts.APIURL("/rooms/"+room.ID+"/leave"), nil, hostToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s already left", host.DisplayName)

	resp = do(t, "POST", ts.APIURL("/rooms/"+room.ID+"/leave"), nil, guestToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, "GET", ts.APIURL("/rooms/"+room.ID), nil, guestToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoomHandler_JoinFullRoom(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, hostToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	room := createRoom(t, ts, hostToken, "Packed")

	for i := 0; i < 9; i++ {
		_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
		resp := do(t, "POST", ts.APIURL("/rooms/"+room.ID+"/join"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	resp := do(t, "POST", ts.APIURL("/rooms/"+room.ID+"/join"), nil, token)
	testutil.AssertErrorResponse(t, resp, http.StatusUnprocessableEntity, "room is full")
}
