package order

import (
	"restobar-be/internal/access"
)

// Status is the fulfilment stage of an order. Declaration order is the only
// legal progression; an order never moves backwards or skips a stage.
type Status string

const (
	StatusPendiente        Status = "pendiente"
	StatusRecibido         Status = "recibido"
	StatusEnEspera         Status = "en_espera"
	StatusCocinando        Status = "cocinando"
	StatusPendienteEntrega Status = "pendiente_entrega"
	StatusEntregado        Status = "entregado"
)

var statusSequence = []Status{
	StatusPendiente,
	StatusRecibido,
	StatusEnEspera,
	StatusCocinando,
	StatusPendienteEntrega,
	StatusEntregado,
}

func Statuses() []Status {
	out := make([]Status, len(statusSequence))
	copy(out, statusSequence)
	return out
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	return s.index() >= 0
}

func (s Status) index() int {
	switch s {
	case StatusPendiente:
		return 0
	case StatusRecibido:
		return 1
	case StatusEnEspera:
		return 2
	case StatusCocinando:
		return 3
	case StatusPendienteEntrega:
		return 4
	case StatusEntregado:
		return 5
	}
	return -1
}

// Next returns the following stage. ok is false for the terminal stage and
// for values outside the enum.
func (s Status) Next() (Status, bool) {
	i := s.index()
	if i < 0 || i == len(statusSequence)-1 {
		return "", false
	}
	return statusSequence[i+1], true
}

func (s Status) IsTerminal() bool {
	return s == StatusEntregado
}

func (s Status) Label() string {
	switch s {
	case StatusPendiente:
		return "Pendiente"
	case StatusRecibido:
		return "Recibido"
	case StatusEnEspera:
		return "En espera"
	case StatusCocinando:
		return "Cocinando"
	case StatusPendienteEntrega:
		return "Pendiente de entrega"
	case StatusEntregado:
		return "Entregado"
	}
	return string(s)
}

// KitchenStatuses are the stages the kitchen works on.
func KitchenStatuses() []Status {
	return []Status{StatusPendiente, StatusRecibido, StatusEnEspera, StatusCocinando}
}

// DeliveryStatuses are the stages the floor staff hands out.
func DeliveryStatuses() []Status {
	return []Status{StatusPendienteEntrega}
}

// ActiveStatuses is every non-terminal stage.
func ActiveStatuses() []Status {
	return []Status{StatusPendiente, StatusRecibido, StatusEnEspera, StatusCocinando, StatusPendienteEntrega}
}

// CanAdvance reports whether role may move an order out of from.
// Admin and kitchen move anything that is not finished; floor staff and the
// cashier only confirm delivery.
func CanAdvance(role access.Role, from Status) bool {
	if from.IsTerminal() || !from.Valid() {
		return false
	}
	switch role {
	case access.RoleAdmin, access.RoleCocinero:
		return true
	case access.RoleMesero, access.RoleCajero:
		return from == StatusPendienteEntrega
	case access.RoleUsuario, access.RoleUnknown:
		return false
	}
	return false
}

// Scope names a status set as exposed to staff listings.
type Scope string

const (
	ScopeKitchen  Scope = "kitchen"
	ScopeDelivery Scope = "delivery"
	ScopeActive   Scope = "active"
	ScopeAll      Scope = "all"
)

func (s Scope) Statuses() ([]Status, error) {
	switch s {
	case ScopeKitchen:
		return KitchenStatuses(), nil
	case ScopeDelivery:
		return DeliveryStatuses(), nil
	case ScopeActive, "":
		return ActiveStatuses(), nil
	case ScopeAll:
		return nil, nil
	}
	return nil, ErrInvalidScope
}
