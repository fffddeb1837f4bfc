package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"beecam/internal/dto"
	"beecam/internal/logger"
	hubsvc "beecam/internal/service/websocket"
	"beecam/internal/state"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveWebsocketHandler sends the current state to a viewer and then
// registers it with the hub for live events. The hub's pings keep the read
// deadline moving for viewers that never send anything.
func LiveWebsocketHandler(hub *hubsvc.HubService, rt *state.Runtime, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		pongWait := hub.PongWait()
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(pongWait))
		connection.SetPongHandler(func(string) error {
			connection.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		snapshot := rt.Snapshot()
		if err := connection.WriteJSON(dto.LiveEvent{Type: dto.EventState, State: &snapshot}); err != nil {
			connection.Close()
			return
		}

		if !hub.Register(connection) {
			connection.Close()
			return
		}
		defer hub.Unregister(connection)

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
			connection.SetReadDeadline(time.Now().Add(pongWait))
		}
	}
}
