package websocket_test

import (
	"encoding/json"
	"testing"

	"github.com/dom/deception-server/internal/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAction(t *testing.T) {
	matchID, playerID := uuid.New(), uuid.New()
	ref := `"matchId":"` + matchID.String() + `","playerId":"` + playerID.String() + `"`

	tests := []struct {
		name    string
		msgType websocket.MessageType
		payload string
		wantErr error
		check   func(t *testing.T, a websocket.Action)
	}{
		{
			name:    "accuse",
			msgType: websocket.MessageTypeAccuse,
			payload: `{` + ref + `,"measure":"Knife","clue":"Glove"}`,
			check: func(t *testing.T, a websocket.Action) {
				accuse, ok := a.(*websocket.AccuseAction)
				require.True(t, ok)
				assert.Equal(t, matchID, accuse.MatchID)
				assert.Equal(t, playerID, accuse.PlayerID)
				assert.Equal(t, "Knife", accuse.Measure)
				assert.Equal(t, "Glove", accuse.Clue)
			},
		},
		{
			name:    "provide testimony",
			msgType: websocket.MessageTypeProvideTestimony,
			payload: `{` + ref + `,"options":[{"weight":1,"order":2,"indexOnCard":3}]}`,
			check: func(t *testing.T, a websocket.Action) {
				testimony := a.(*websocket.ProvideTestimonyAction)
				require.Len(t, testimony.Options, 1)
				assert.Equal(t, 2, testimony.Options[0].Order)
				assert.Equal(t, 3, testimony.Options[0].IndexOnCard)
			},
		},
		{
			name:    "replenish with card edits",
			msgType: websocket.MessageTypeReplenishTestimony,
			payload: `{` + ref + `,"cards":[{"informationCardId":"weather","order":3,"status":2}],"options":[{"weight":1,"order":3,"indexOnCard":0}]}`,
			check: func(t *testing.T, a websocket.Action) {
				replenish := a.(*websocket.ReplenishTestimonyAction)
				require.Len(t, replenish.Cards, 1)
				assert.Equal(t, "weather", replenish.Cards[0].InformationCardID)
			},
		},
		{
			name:    "assist without a card draws at random",
			msgType: websocket.MessageTypeAssist,
			payload: `{` + ref + `}`,
			check: func(t *testing.T, a websocket.Action) {
				assert.Empty(t, a.(*websocket.AssistAction).CardID)
			},
		},
		{
			name:    "empty payload for actions without fields",
			msgType: websocket.MessageTypeStartMatch,
			payload: ``,
			check: func(t *testing.T, a websocket.Action) {
				assert.Equal(t, websocket.MessageTypeStartMatch, a.Type())
			},
		},
		{
			name:    "null payload",
			msgType: websocket.MessageTypeLeaveRoom,
			payload: `null`,
		},
		{
			name:    "unknown type",
			msgType: "dance",
			payload: `{}`,
			wantErr: websocket.ErrUnknownAction,
		},
		{
			name:    "server message type",
			msgType: websocket.MessageTypeMatchStateUpdated,
			payload: `{}`,
			wantErr: websocket.ErrUnknownAction,
		},
		{
			name:    "unknown field",
			msgType: websocket.MessageTypeEndTurn,
			payload: `{` + ref + `,"index":0,"extra":true}`,
			wantErr: websocket.ErrInvalidPayload,
		},
		{
			name:    "trailing data",
			msgType: websocket.MessageTypeEndTurn,
			payload: `{` + ref + `,"index":0}{}`,
			wantErr: websocket.ErrInvalidPayload,
		},
		{
			name:    "missing player",
			msgType: websocket.MessageTypeReady,
			payload: `{"matchId":"` + matchID.String() + `"}`,
			wantErr: websocket.ErrInvalidPayload,
		},
		{
			name:    "negative index",
			msgType: websocket.MessageTypeSolveCase,
			payload: `{` + ref + `,"measure":"Knife","clue":"Glove","index":-1}`,
			wantErr: websocket.ErrInvalidPayload,
		},
		{
			name:    "wrong field type",
			msgType: websocket.MessageTypeSetRoomReady,
			payload: `{"ready":"yes"}`,
			wantErr: websocket.ErrInvalidPayload,
		},
		{
			name:    "missing room",
			msgType: websocket.MessageTypeEnterRoom,
			payload: `{}`,
			wantErr: websocket.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &websocket.Message{Type: tt.msgType, Payload: json.RawMessage(tt.payload)}
			action, err := websocket.DecodeAction(msg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, action)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.msgType, action.Type())
			if tt.check != nil {
				tt.check(t, action)
			}
		})
	}
}
