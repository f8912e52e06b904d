package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/scoop/internal/domain/order"
)

type createOrderRequest struct {
	customerID int64
	lines      []order.Line
}

func decodeCreateOrder(r *http.Request) (createOrderRequest, error) {
	var req createOrderRequest
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "customerId":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Int64()
			if err != nil {
				return badRequest("customerId must be an integer")
			}
			req.customerID = v
			return nil
		case "lines":
			if d.Next() == jx.Null {
				return d.Null()
			}
			req.lines = []order.Line{}
			return d.Arr(func(d *jx.Decoder) error {
				var l order.Line
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "flavorId":
						v, err := d.Int64()
						if err != nil {
							return badRequest("lines[%d].flavorId must be an integer", len(req.lines))
						}
						l.FlavorID = v
					case "quantity":
						v, err := d.Int()
						if err != nil {
							return badRequest("lines[%d].quantity must be an integer", len(req.lines))
						}
						l.Quantity = v
					default:
						return d.Skip()
					}
					return nil
				}); err != nil {
					return err
				}
				req.lines = append(req.lines, l)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	return req, err
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request, p Principal) {
	req, err := decodeCreateOrder(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	customerID := req.customerID
	switch {
	case customerID == 0 && p.CustomerID != 0:
		customerID = p.CustomerID
	case customerID == 0:
		fail(w, r, badRequest("customerId is required"))
		return
	case !p.CanAccessCustomer(customerID):
		fail(w, r, errForbidden)
		return
	}

	id, err := h.orders.CreateOrder(r.Context(), customerID, req.lines)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/orders/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Int64(id) })
			e.Field("status", func(e *jx.Encoder) { e.Str(order.StatusPending.String()) })
		})
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, p Principal) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	d, err := h.orders.GetOrderDetail(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	// Other customers' orders are reported as absent.
	if !p.CanAccessCustomer(d.CustomerID) {
		fail(w, r, order.ErrOrderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeDetail(e, d) })
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request, _ Principal) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var raw string
	var present bool
	err = decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		present = true
		v, err := d.Str()
		if err != nil {
			return badRequest("status must be a string")
		}
		raw = v
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if !present {
		fail(w, r, badRequest("status is required"))
		return
	}

	if err := h.orders.SetStatus(r.Context(), id, raw); err != nil {
		fail(w, r, err)
		return
	}
	status, _ := order.ParseStatus(raw)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Int64(id) })
			e.Field("status", func(e *jx.Encoder) { e.Str(status.String()) })
		})
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, _ Principal) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		fail(w, r, err)
		return
	}
	orders, err := h.orders.ListOrders(r.Context(), order.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSummaries(e, orders) })
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("name", func(e *jx.Encoder) { e.Str("scoop") })
			e.Field("version", func(e *jx.Encoder) { e.Str(h.version) })
			e.Field("endpoints", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, ep := range endpoints {
						e.Str(ep)
					}
				})
			})
		})
	})
}
