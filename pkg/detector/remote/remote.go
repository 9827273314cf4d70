package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/context"

	"MemeShield/internal/entity"
	"MemeShield/pkg/detector"
)

// Detector talks to an external inference sidecar over a WebSocket: one
// binary JPEG frame out, one JSON detection list back. The connection is
// dialed lazily and re-dialed on demand after any transport error.
type Detector struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn

	handshakeTimeout time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration
}

type wireResult struct {
	Detections []entity.Detection `json:"detections"`
	Error      string             `json:"error,omitempty"`
}

func New() (*Detector, error) {
	url := os.Getenv("DETECTOR_WS_URL")
	if url == "" {
		return nil, errors.New("DETECTOR_WS_URL is not configured")
	}

	d := &Detector{
		url:              url,
		handshakeTimeout: 10 * time.Second,
		readTimeout:      30 * time.Second,
		writeTimeout:     5 * time.Second,
	}

	// Dial eagerly so a dead sidecar shows up at startup, but keep the
	// detector usable: Detect re-dials on demand.
	if err := d.reconnectLocked(); err != nil {
		return nil, fmt.Errorf("failed to connect to inference sidecar: %w", err)
	}

	return d, nil
}

func (d *Detector) Name() string {
	return "remote"
}

func (d *Detector) reconnectLocked() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: d.handshakeTimeout}
	conn, _, err := dialer.Dial(d.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", d.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(d.writeTimeout))
	})

	d.conn = conn
	return nil
}

// Detect is serialized on one connection: the sidecar protocol pairs each
// request frame with exactly one response frame.
func (d *Detector) Detect(ctx context.Context, in detector.Input) ([]entity.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		if err := d.reconnectLocked(); err != nil {
			return nil, err
		}
	}

	readTimeout := d.readTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < readTimeout {
			readTimeout = remaining
		}
	}

	if err := d.conn.SetWriteDeadline(time.Now().Add(d.writeTimeout)); err != nil {
		return nil, err
	}
	if err := d.conn.WriteMessage(websocket.BinaryMessage, in.Bytes); err != nil {
		d.conn.Close()
		d.conn = nil
		return nil, fmt.Errorf("failed to send frame to sidecar: %w", err)
	}

	if err := d.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, err
	}
	_, message, err := d.conn.ReadMessage()
	if err != nil {
		d.conn.Close()
		d.conn = nil
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("failed to read sidecar response: %w", err)
	}

	var result wireResult
	if err := json.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("malformed sidecar response: %w", err)
	}
	if result.Error != "" {
		return nil, errors.New(result.Error)
	}

	return result.Detections, nil
}

func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}
