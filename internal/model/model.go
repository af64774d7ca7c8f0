package model

import (
	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
	"github.com/LeonardoBeccarini/biosync/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	Device           = entities.Device
	DeviceType       = entities.DeviceType
	Alert            = entities.Alert
	AlertKind        = entities.AlertKind
	Severity         = entities.Severity
	Level            = entities.Level
	Tab              = entities.Tab
	StateChangeEvent = messages.StateChangeEvent
	AlertEvent       = messages.AlertEvent
	CommandEvent     = messages.CommandEvent
)

const (
	TypeRing      = entities.TypeRing
	TypeInsole    = entities.TypeInsole
	TypeWristband = entities.TypeWristband

	SeverityInfo    = entities.SeverityInfo
	SeveritySuccess = entities.SeveritySuccess
	SeverityWarning = entities.SeverityWarning

	AlertModal = entities.AlertModal
	AlertToast = entities.AlertToast

	TabMonitor   = entities.TabMonitor
	TabControl   = entities.TabControl
	TabAdmin     = entities.TabAdmin
	TabDashboard = entities.TabDashboard
)

// Types elenca i tipi in ordine di visualizzazione.
var Types = entities.Types

// FindByType restituisce il primo dispositivo del tipo richiesto.
func FindByType(devices []Device, t DeviceType) (Device, bool) {
	for _, d := range devices {
		if d.Tipo == t {
			return d, true
		}
	}
	return Device{}, false
}

// FindByID restituisce l'indice del dispositivo con l'id dato, -1 se assente.
func FindByID(devices []Device, id string) int {
	for i, d := range devices {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func IDs(devices []Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.ID)
	}
	return out
}

// CountOnline conta i dispositivi accesi.
func CountOnline(devices []Device) int {
	n := 0
	for _, d := range devices {
		if d.Estado {
			n++
		}
	}
	return n
}
