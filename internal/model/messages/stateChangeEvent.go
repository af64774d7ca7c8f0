package messages

import (
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
)

// StateChangeEvent per cambio di stato (on/off) di un dispositivo
type StateChangeEvent struct {
	EventID   string              `json:"event_id"`
	DeviceID  string              `json:"device_id"`
	Tipo      entities.DeviceType `json:"tipo"`
	NewState  bool                `json:"new_state"`
	Source    string              `json:"source"` // rule:<nome> | user
	Timestamp time.Time           `json:"timestamp"`
}
