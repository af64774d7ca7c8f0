package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
)

var (
	ErrInvalid       = errors.New("invalid device")
	ErrNotFound      = errors.New("device not found")
	ErrTypeImmutable = errors.New("device type cannot change")
	ErrSaveFailed    = errors.New("error saving device")
	ErrDeleteFailed  = errors.New("error deleting device")
	ErrUnknownTab    = errors.New("unknown tab")
)

// Messaggi mostrati all'utente quando lo store rifiuta una scrittura.
const (
	SaveFailedMessage   = "Error saving: check connection"
	DeleteFailedMessage = "Error deleting: check connection"
)

// DeviceInput è il contenuto del form di creazione/modifica.
type DeviceInput struct {
	Nombre      string           `json:"nombre"`
	Tipo        model.DeviceType `json:"tipo"`
	ValorSensor *int             `json:"valor_sensor"`
}

func (in DeviceInput) validate(requireType bool) error {
	if strings.TrimSpace(in.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", ErrInvalid)
	}
	if requireType && !in.Tipo.Valid() {
		return fmt.Errorf("%w: unknown tipo %q", ErrInvalid, in.Tipo)
	}
	if in.ValorSensor == nil {
		return fmt.Errorf("%w: valor_sensor is required", ErrInvalid)
	}
	if v := *in.ValorSensor; v < entities.MinValue || v > entities.MaxValue {
		return fmt.Errorf("%w: valor_sensor %d out of range", ErrInvalid, v)
	}
	return nil
}

// CreateDevice registra un nuovo dispositivo, sempre spento.
func (d *Dashboard) CreateDevice(ctx context.Context, in DeviceInput) error {
	if err := in.validate(true); err != nil {
		return err
	}
	dev := model.Device{
		Nombre:      strings.TrimSpace(in.Nombre),
		Tipo:        in.Tipo,
		ValorSensor: *in.ValorSensor,
		Estado:      false,
	}

	d.lock()
	defer d.unlock()
	if !d.store.Create(ctx, dev) {
		return ErrSaveFailed
	}
	d.toast(ctx, model.SeveritySuccess, "Created", fmt.Sprintf("Device %q saved.", dev.Nombre))
	d.poller.Refresh()
	return nil
}

// EditDevice aggiorna nome e valore; lo stato on/off resta quello salvato.
func (d *Dashboard) EditDevice(ctx context.Context, id string, in DeviceInput) error {
	if err := in.validate(false); err != nil {
		return err
	}

	d.lock()
	defer d.unlock()

	old, err := d.find(ctx, id)
	if err != nil {
		return err
	}
	if in.Tipo != "" && in.Tipo != old.Tipo {
		return ErrTypeImmutable
	}
	upd := old
	upd.Nombre = strings.TrimSpace(in.Nombre)
	upd.ValorSensor = *in.ValorSensor
	if !d.store.Update(ctx, id, upd) {
		return ErrSaveFailed
	}
	d.toast(ctx, model.SeveritySuccess, "Updated", fmt.Sprintf("Device %q saved.", upd.Nombre))
	d.poller.Refresh()
	return nil
}

// ToggleDevice accende o spegne un dispositivo. Un id sconosciuto è un no-op
// silenzioso: restituisce false senza errore. Uno store irraggiungibile dà
// ErrSaveFailed.
func (d *Dashboard) ToggleDevice(ctx context.Context, id string, on bool, source string) (bool, error) {
	d.lock()
	defer d.unlock()

	dev, err := d.find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		d.logger.Debug("toggle: device not found", "id", id, "source", source)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	dev.Estado = on
	if !d.store.Update(ctx, id, dev) {
		return true, ErrSaveFailed
	}

	if on {
		d.toast(ctx, model.SeveritySuccess, "Device on", fmt.Sprintf("%s is now active.", dev.Nombre))
	} else {
		d.toast(ctx, model.SeverityInfo, "Device off", fmt.Sprintf("%s is now inactive.", dev.Nombre))
	}
	d.publishState(ctx, dev, source, d.sess.Now())
	d.poller.Refresh()
	return true, nil
}

func (d *Dashboard) DeleteDevice(ctx context.Context, id string) error {
	d.lock()
	defer d.unlock()

	if !d.store.Delete(ctx, id) {
		return ErrDeleteFailed
	}
	d.sess.ForgetDevice(id)
	d.toast(ctx, model.SeverityInfo, "Deleted", "Device deleted.")
	d.poller.Refresh()
	return nil
}

// SetAutomation abilita o disabilita le regole automatiche.
func (d *Dashboard) SetAutomation(ctx context.Context, on bool) {
	if !d.sess.SetAutomation(on) {
		return
	}
	if on {
		d.toast(ctx, model.SeveritySuccess, "Auto-rules ON", "Device automation enabled.")
	} else {
		d.toast(ctx, model.SeverityInfo, "Auto-rules OFF", "No automatic actions will be taken.")
	}
}

// SetMode seleziona la modalità operativa mostrata nella card (solo sessione).
func (d *Dashboard) SetMode(ctx context.Context, id, mode string) error {
	snapshot := d.sess.Snapshot()
	i := model.FindByID(snapshot, id)
	if i < 0 {
		return ErrNotFound
	}
	if !validMode(snapshot[i].Tipo, mode) {
		return fmt.Errorf("%w: mode %q not available for %s", ErrInvalid, mode, snapshot[i].Tipo)
	}
	d.sess.SetMode(id, mode)
	d.toast(ctx, model.SeverityInfo, "Mode updated", fmt.Sprintf("Mode %q selected.", mode))
	return nil
}

// Devices restituisce l'ultimo snapshot renderizzato.
func (d *Dashboard) Devices() []model.Device {
	return d.sess.Snapshot()
}

// find cerca id nello store. Con lo store irraggiungibile la lista vuota non
// prova nulla: restituisce ErrSaveFailed invece di ErrNotFound.
func (d *Dashboard) find(ctx context.Context, id string) (model.Device, error) {
	devices := d.store.List(ctx)
	if i := model.FindByID(devices, id); i >= 0 {
		return devices[i], nil
	}
	if !d.store.Status().Reachable {
		return model.Device{}, ErrSaveFailed
	}
	return model.Device{}, ErrNotFound
}

func (d *Dashboard) toast(ctx context.Context, sev model.Severity, title, body string) {
	d.deliver(ctx, model.Alert{
		ID:       uuid.NewString(),
		Kind:     model.AlertToast,
		Severity: sev,
		Title:    title,
		Body:     body,
		Time:     d.sess.Now(),
	})
}
