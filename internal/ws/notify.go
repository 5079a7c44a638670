package ws

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ApplicationReceivedEvent struct {
	Type      string `json:"type"`
	Position  string `json:"position"`
	CityID    int64  `json:"city_id"`
	Timestamp string `json:"timestamp"`
}

// NotifyApplicationReceived tells feed subscribers that a position got a new
// application. Candidate details are never part of the event.
func (h *Hub) NotifyApplicationReceived(position string, cityID int64) {
	if h == nil {
		return
	}

	evt := ApplicationReceivedEvent{
		Type:      "application_received",
		Position:  strings.TrimSpace(position),
		CityID:    cityID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("ws event encode failed", zap.Error(err))
		return
	}
	h.Broadcast(b)
}
