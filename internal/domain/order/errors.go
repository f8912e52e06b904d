package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies order errors into the stable set reported to callers.
type Kind int

const (
	// KindValidation covers missing or malformed input, unresolved flavor
	// references and unknown status values.
	KindValidation Kind = iota + 1
	// KindNotFound covers absent customers and orders.
	KindNotFound
	// KindPersistence covers storage faults; the request may be retried.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindOf returns the kind of err. Errors that carry no kind are storage or
// infrastructure faults and classify as KindPersistence.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindPersistence
}

type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Kind() Kind    { return e.kind }

var (
	// ErrEmptyOrder is returned when an order has no lines.
	ErrEmptyOrder error = &kindError{kind: KindValidation, msg: "order must contain at least one line"}
	// ErrCustomerNotFound is returned when the customer does not resolve.
	ErrCustomerNotFound error = &kindError{kind: KindNotFound, msg: "customer not found"}
	// ErrOrderNotFound is returned when the order does not resolve.
	ErrOrderNotFound error = &kindError{kind: KindNotFound, msg: "order not found"}
)

// InvalidLineError reports a line whose quantity is not positive or exceeds
// MaxQuantity.
type InvalidLineError struct {
	Index    int
	FlavorID int64
	Quantity int
}

func (e *InvalidLineError) Error() string {
	if e.Quantity > MaxQuantity {
		return fmt.Sprintf("line %d: quantity must not exceed %d for flavor %d", e.Index, MaxQuantity, e.FlavorID)
	}
	return fmt.Sprintf("line %d: quantity must be greater than 0 for flavor %d", e.Index, e.FlavorID)
}

// Kind implements the kind classification.
func (e *InvalidLineError) Kind() Kind { return KindValidation }

// UnknownFlavorError reports a line referencing a flavor that does not exist.
type UnknownFlavorError struct {
	FlavorID int64
}

func (e *UnknownFlavorError) Error() string {
	return fmt.Sprintf("flavor %d not found", e.FlavorID)
}

// Kind implements the kind classification.
func (e *UnknownFlavorError) Kind() Kind { return KindValidation }

// InvalidStatusError reports a status value outside the enumerated set.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q: allowed values are %s", e.Value, statusList())
}

// Kind implements the kind classification.
func (e *InvalidStatusError) Kind() Kind { return KindValidation }

// PersistenceError wraps a storage fault. When returned by CreateOrder the
// unit of work has already been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Kind implements the kind classification.
func (e *PersistenceError) Kind() Kind { return KindPersistence }

// persistence wraps err unless it already carries a kind.
func persistence(op string, err error) error {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// TransitionError reports a status change refused by the transition policy.
type TransitionError struct {
	From Status
	To   Status
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// Kind implements the kind classification.
func (e *TransitionError) Kind() Kind { return KindValidation }
