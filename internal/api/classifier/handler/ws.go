package classifierHandler

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

// handlePredictWebSocket classifies a stream of binary image frames: one
// frame in, one ClassificationResult out. Errors are reported in-band so a
// bad frame does not tear down the stream.
func (h *ClassifierHandler) handlePredictWebSocket(c *websocket.Conn) {
	h.log.Info("Classification WebSocket client connected")
	defer h.log.Info("Classification WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Classification WebSocket error: %v", err)
			} else {
				h.log.Info("Classification WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), predictTimeout)
		result, err := h.classifierService.ClassifyBytes(ctx, message)
		cancel()

		if err != nil {
			h.log.Errorf("Error classifying frame: %v", err)
			if writeErr := c.WriteJSON(map[string]string{"error": err.Error()}); writeErr != nil {
				h.log.Errorf("Error sending error response: %v", writeErr)
				break
			}
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}
