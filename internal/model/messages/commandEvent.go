package messages

// CommandEvent arriva su biosync/commands/#: accende o spegne un dispositivo.
type CommandEvent struct {
	DeviceID string `json:"device_id"`
	Estado   bool   `json:"estado"`
}
