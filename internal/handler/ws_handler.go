package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"parley/internal/app/chat"
	"parley/internal/pkg/logx"
)

// HandleWebSocket upgrades the HTTP connection and starts the client
// lifecycle. The connection joins anonymously; identity arrives with the
// join event on the socket.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn)
		deps.Hub.Register(client)

		go client.WritePump()

		client.ReadPump()
	}
}
