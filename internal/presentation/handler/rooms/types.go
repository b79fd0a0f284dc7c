package rooms

// createRoomRequest carries the host's profile for a new room.
type createRoomRequest struct {
	DisplayName string `json:"displayName"` // 2-24 chars, letters/digits/underscore/hyphen
	AvatarID    int    `json:"avatarId"`    // 0-11
}

// joinRoomRequest carries a joining player's profile.
type joinRoomRequest struct {
	DisplayName string `json:"displayName"`
	AvatarID    int    `json:"avatarId"`
}

// seatResponse is returned from both create and join: everything the
// client needs to open its websocket.
type seatResponse struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
	Token    string `json:"token"` // bearer for the websocket upgrade
}
