package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/aipothole/pothole-api/internal/core/domain"
	"github.com/aipothole/pothole-api/internal/pkg/geospatial"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
)

// liveSubject carries every pothole and image event.
const liveSubject = "potholes.>"

// wsMessage is sent by clients to narrow the feed to an area.
//
//	{"action":"subscribe","lat":40.7,"long":-73.9,"radius":2000}
//	{"action":"unsubscribe"}
type wsMessage struct {
	Action string  `json:"action"`
	Lat    float64 `json:"lat"`
	Long   float64 `json:"long"`
	Radius float64 `json:"radius"`
}

// areaFilter is the client's current area of interest; nil means everything.
type areaFilter struct {
	center domain.GeoPoint
	radius float64
}

// allows reports whether an event payload falls inside the filter. Events
// without a location (image events) always pass.
func (f *areaFilter) allows(data []byte) bool {
	if f == nil {
		return true
	}
	var ev struct {
		Location *domain.GeoPoint `json:"location"`
	}
	if err := json.Unmarshal(data, &ev); err != nil || ev.Location == nil {
		return true
	}
	return geospatial.Distance(f.center, *ev.Location) <= f.radius
}

// WebSocketHandler relays pothole events from NATS to the client.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		logger := slog.Default().With("remote", c.RemoteAddr().String())
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Debug("ws client connected")

		var mu sync.Mutex
		var filter *areaFilter

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if nc == nil {
			_ = writeJSON(map[string]string{"error": "live feed unavailable"})
			return
		}

		sub, err := nc.Subscribe(liveSubject, func(msg *nats.Msg) {
			mu.Lock()
			f := filter
			mu.Unlock()
			if f.allows(msg.Data) {
				_ = writeJSON(json.RawMessage(msg.Data))
			}
		})
		if err != nil {
			logger.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if m.Radius <= 0 || m.Lat < -90 || m.Lat > 90 || m.Long < -180 || m.Long > 180 {
					_ = writeJSON(map[string]string{"error": "subscribe needs lat, long and a positive radius"})
					continue
				}
				mu.Lock()
				filter = &areaFilter{center: domain.GeoPoint{Lat: m.Lat, Long: m.Long}, radius: m.Radius}
				mu.Unlock()
				_ = writeJSON(map[string]string{"status": "subscribed"})
			case "unsubscribe":
				mu.Lock()
				filter = nil
				mu.Unlock()
				_ = writeJSON(map[string]string{"status": "unsubscribed"})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		logger.Debug("ws client disconnected")
	}
}
