package entities

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// AlertKind distingue il modale bloccante dal toast.
type AlertKind string

const (
	AlertModal AlertKind = "modal"
	AlertToast AlertKind = "toast"
)

type Alert struct {
	ID         string    `json:"id"`
	Kind       AlertKind `json:"kind"`
	Severity   Severity  `json:"severity"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	DeviceInfo string    `json:"device_info,omitempty"`
	Time       time.Time `json:"time"`
}

// Tab è una delle viste della dashboard.
type Tab string

const (
	TabMonitor   Tab = "monitor"
	TabControl   Tab = "control"
	TabAdmin     Tab = "admin"
	TabDashboard Tab = "dashboard"
)

func (t Tab) Valid() bool {
	switch t {
	case TabMonitor, TabControl, TabAdmin, TabDashboard:
		return true
	}
	return false
}
