package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorify/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades authenticated
// requests to WebSocket and runs them as Hub clients of the caller's account.
// originPatterns limits cross-origin browsers; empty allows same-origin only.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := auth.AccountID(r.Context())
		if accountID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "account_id", accountID)
		client := NewClient(hub, conn, accountID)
		client.Run(r.Context())
		conn.CloseNow()
	}
}
