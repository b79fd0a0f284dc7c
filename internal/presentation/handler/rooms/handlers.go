package rooms

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/game"
	"github.com/lunahex/mimic/internal/infrastructure/json"
	"github.com/lunahex/mimic/internal/infrastructure/logging"
	"github.com/lunahex/mimic/internal/infrastructure/session"
	"github.com/lunahex/mimic/internal/infrastructure/ws"
)

type Handler struct {
	engine      *game.Engine
	roomManager *ws.RoomManager
	core        *ws.Core
	sessions    *session.Manager
	logger      logging.Logger
}

func NewHandler(
	engine *game.Engine,
	roomManager *ws.RoomManager,
	core *ws.Core,
	sessions *session.Manager,
	logger logging.Logger,
) *Handler {
	return &Handler{
		engine:      engine,
		roomManager: roomManager,
		core:        core,
		sessions:    sessions,
		logger:      logger,
	}
}

// CreateRoomHandler opens a new room and seats the caller as host.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, host, err := h.engine.CreateRoom(req.DisplayName, req.AvatarID)
	if err != nil {
		h.writeGameError(w, err)
		return
	}

	token, err := h.sessions.Issue(host.ID, room.Code, host.Name, true, time.Now())
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, seatResponse{
		RoomCode: room.Code,
		PlayerID: host.ID,
		IsHost:   true,
		Token:    token,
	})
}

// JoinRoomHandler seats the caller in an existing room.
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))

	var req joinRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, player, err := h.engine.JoinRoom(code, req.DisplayName, req.AvatarID)
	if err != nil {
		h.writeGameError(w, err)
		return
	}

	token, err := h.sessions.Issue(player.ID, room.Code, player.Name, false, time.Now())
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, seatResponse{
		RoomCode: room.Code,
		PlayerID: player.ID,
		IsHost:   false,
		Token:    token,
	})
}

// GetRoomHandler returns the room's current snapshot. Useful for a
// client deciding whether a code is worth joining.
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))

	snap, err := h.engine.Snapshot(code)
	if err != nil {
		h.writeGameError(w, err)
		return
	}

	json.Write(w, http.StatusOK, snap)
}

// ConnectHandler upgrades an authenticated seat to a websocket and
// hands it to the hub. The token travels as a query parameter because
// browser websocket clients cannot set headers.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))

	token := r.URL.Query().Get("token")
	if token == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing session token")
		return
	}

	claims, err := h.sessions.Verify(token)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Invalid session token")
		return
	}
	if claims.GameCode != code {
		json.WriteError(w, http.StatusForbidden, errors.New("forbidden"), "Token was issued for a different room")
		return
	}

	conn, err := h.roomManager.Upgrade(w, r)
	if err != nil {
		h.logger.Error(logging.Connection, logging.ExternalService, "websocket upgrade failed: "+err.Error(), map[logging.ExtraKey]any{
			logging.RoomCode: code,
			logging.PlayerID: claims.PlayerID,
		})
		return
	}

	client := ws.NewClient(conn, claims.PlayerID, code)
	h.core.Register() <- client

	go client.WriteMessage()
	go client.ReadMessage(h.core, h.engine)

	if err := h.engine.Attach(client); err != nil {
		reason := "ROOM_NOT_FOUND"
		if errors.Is(err, domain.ErrPlayerNotInRoom) {
			reason = "PLAYER_NOT_IN_ROOM"
		}
		client.Deliver(ws.NewError(code, reason, err.Error()))
		h.core.Unregister() <- client
		return
	}
}

func (h *Handler) writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		json.WriteError(w, http.StatusNotFound, err, "Room not found")
	case errors.Is(err, domain.ErrRoomFull):
		json.WriteError(w, http.StatusConflict, err, "Room is full")
	case errors.Is(err, domain.ErrGameInProgress):
		json.WriteError(w, http.StatusConflict, err, "Game already in progress")
	case errors.Is(err, domain.ErrPlayerNotInRoom):
		json.WriteError(w, http.StatusNotFound, err, "Player is not in this room")
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		json.WriteError(w, http.StatusServiceUnavailable, err, "No room codes available, try again")
	default:
		json.WriteBadRequestError(w, err.Error())
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
