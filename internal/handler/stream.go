package handler

import (
	"net/http"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
	"qrguard/internal/service/scan"

	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ScanStreamHandler scans every binary frame received on the socket as an
// image and answers each with one JSON message. Frame errors are reported to
// the client and do not close the connection.
func ScanStreamHandler(scanner *scan.Scanner, maxFrame int64, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		connection.SetReadLimit(maxFrame)
		logger.Info("Scan stream opened from %s", r.RemoteAddr)

		for {
			messageType, data, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Scan stream closed normally")
				} else {
					logger.Warning("Scan stream closed with error: %v", err)
				}
				return
			}

			var reply interface{}
			if messageType != websocket.BinaryMessage {
				reply = dto.StreamError{Error: "Expected a binary image frame", Status: http.StatusBadRequest}
			} else if results, err := scanner.Scan(data); err != nil {
				reply = dto.StreamError{Error: err.Error(), Status: statusFor(err)}
			} else {
				reply = dto.ScanResponse{Results: results}
			}

			if err := connection.WriteJSON(reply); err != nil {
				logger.Warning("Failed to write scan stream reply: %v", err)
				return
			}
		}
	}
}
