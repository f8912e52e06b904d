package order

import "strings"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending       Status = "Pending"
	StatusInPreparation Status = "InPreparation"
	StatusReady         Status = "Ready"
	StatusDelivered     Status = "Delivered"
	StatusCancelled     Status = "Cancelled"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusInPreparation,
	StatusReady,
	StatusDelivered,
	StatusCancelled,
}

// legacyStatuses maps the labels used by the shop's original front end.
var legacyStatuses = map[string]Status{
	"Pendente":   StatusPending,
	"Em Preparo": StatusInPreparation,
	"Pronto":     StatusReady,
	"Entregue":   StatusDelivered,
	"Cancelado":  StatusCancelled,
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus converts a canonical status name or a legacy label into a
// Status.
func ParseStatus(v string) (Status, error) {
	if s := Status(v); s.Valid() {
		return s, nil
	}
	if s, ok := legacyStatuses[strings.TrimSpace(v)]; ok {
		return s, nil
	}
	return "", &InvalidStatusError{Value: v}
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// TransitionPolicy decides whether an order may move between two statuses.
// It returns nil to allow the transition.
type TransitionPolicy func(from, to Status) error

// Unrestricted allows any status to follow any other, terminal ones
// included.
func Unrestricted(_, _ Status) error { return nil }

// StatusMachine validates requested status changes against a policy.
type StatusMachine struct {
	policy TransitionPolicy
}

// NewStatusMachine creates a StatusMachine. A nil policy means Unrestricted.
func NewStatusMachine(policy TransitionPolicy) *StatusMachine {
	if policy == nil {
		policy = Unrestricted
	}
	return &StatusMachine{policy: policy}
}

// Transition checks that an order currently in from may move to to.
func (m *StatusMachine) Transition(from, to Status) error {
	if !to.Valid() {
		return &InvalidStatusError{Value: string(to)}
	}
	if err := m.policy(from, to); err != nil {
		return &TransitionError{From: from, To: to, Err: err}
	}
	return nil
}
