package messages

import (
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
)

type AlertEvent struct {
	AlertID    string             `json:"alert_id"`
	Kind       entities.AlertKind `json:"kind"`
	Severity   entities.Severity  `json:"severity"`
	Title      string             `json:"title"`
	Body       string             `json:"body"`
	DeviceInfo string             `json:"device_info,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

func NewAlertEvent(a entities.Alert) AlertEvent {
	return AlertEvent{
		AlertID:    a.ID,
		Kind:       a.Kind,
		Severity:   a.Severity,
		Title:      a.Title,
		Body:       a.Body,
		DeviceInfo: a.DeviceInfo,
		Timestamp:  a.Time.UTC(),
	}
}
