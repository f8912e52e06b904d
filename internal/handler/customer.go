package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/scoop/internal/domain/customer"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var reg customer.Registration
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			reg.Name, err = d.Str()
		case "email":
			reg.Email, err = d.Str()
		case "phone":
			reg.Phone, err = d.Str()
		case "password":
			reg.Password, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	c, err := h.customers.Register(r.Context(), reg)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/customers/"+strconv.FormatInt(c.ID, 10))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCustomer(e, *c) })
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	s, err := h.customers.Login(r.Context(), email, password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("token", func(e *jx.Encoder) { e.Str(s.Token) })
			e.Field("expiresAt", func(e *jx.Encoder) { encodeTime(e, s.ExpiresAt) })
			e.Field("customer", func(e *jx.Encoder) { encodeCustomer(e, *s.Customer) })
		})
	})
}

// customerFromPath resolves the {id} path value and checks p may access it.
func customerFromPath(r *http.Request, p Principal) (int64, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, err
	}
	if !p.CanAccessCustomer(id) {
		return 0, errForbidden
	}
	return id, nil
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request, p Principal) {
	id, err := customerFromPath(r, p)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCustomer(e, *c) })
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request, p Principal) {
	id, err := customerFromPath(r, p)
	if err != nil {
		fail(w, r, err)
		return
	}
	var name, phone string
	err = decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			name, err = d.Str()
		case "phone":
			phone, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	c, err := h.customers.UpdateProfile(r.Context(), id, name, phone)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCustomer(e, *c) })
}

func (h *Handler) customerOrders(w http.ResponseWriter, r *http.Request, p Principal) {
	id, err := customerFromPath(r, p)
	if err != nil {
		fail(w, r, err)
		return
	}
	orders, err := h.orders.GetOrdersForCustomer(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}
