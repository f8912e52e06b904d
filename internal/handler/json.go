package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/scoop/internal/domain/customer"
	"github.com/xenking/scoop/internal/domain/flavor"
	"github.com/xenking/scoop/internal/domain/order"
)

const maxBodySize = 1 << 20

// badRequestError reports a malformed request.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodeObject reads a JSON object body and calls fn for every field.
func decodeObject(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if len(body) > maxBodySize {
		return badRequest("request body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return badRequest("request body is required")
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		var bre *badRequestError
		if errors.As(err, &bre) {
			return bre
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return v, nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	default:
		return decimal.Decimal{}, badRequest("price must be a number")
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, badRequest("invalid price %q", raw)
	}
	return v, nil
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func (h *Handler) imageURL(image string) string {
	if image == "" || h.imageBaseURL == "" ||
		strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(image, "/")
}

func (h *Handler) encodeFlavor(e *jx.Encoder, f flavor.Flavor) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(f.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(f.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(f.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Str(f.Price.StringFixed(2)) })
		e.Field("image", func(e *jx.Encoder) {
			if f.Image == "" {
				e.Null()
				return
			}
			e.Str(h.imageURL(f.Image))
		})
	})
}

func encodeCustomer(e *jx.Encoder, c customer.Customer) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(c.Phone) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, c.CreatedAt) })
	})
}

func encodeOrderFields(e *jx.Encoder, o order.Order) {
	e.Field("id", func(e *jx.Encoder) { e.Int64(o.ID) })
	e.Field("customerId", func(e *jx.Encoder) { e.Int64(o.CustomerID) })
	e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
	e.Field("status", func(e *jx.Encoder) { e.Str(o.Status.String()) })
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.Arr(func(e *jx.Encoder) {
		for _, o := range orders {
			e.Obj(func(e *jx.Encoder) { encodeOrderFields(e, o) })
		}
	})
}

func encodeSummaries(e *jx.Encoder, orders []order.Summary) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range orders {
			e.Obj(func(e *jx.Encoder) {
				encodeOrderFields(e, s.Order)
				e.Field("customer", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(s.CustomerName) })
						e.Field("email", func(e *jx.Encoder) { e.Str(s.CustomerEmail) })
						e.Field("phone", func(e *jx.Encoder) { e.Str(s.CustomerPhone) })
					})
				})
			})
		}
	})
}

func (h *Handler) encodeDetail(e *jx.Encoder, d *order.Detail) {
	e.Obj(func(e *jx.Encoder) {
		encodeOrderFields(e, d.Order)
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range d.Quote.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("flavorId", func(e *jx.Encoder) { e.Int64(l.FlavorID) })
						e.Field("flavorName", func(e *jx.Encoder) { e.Str(l.FlavorName) })
						e.Field("description", func(e *jx.Encoder) { e.Str(l.FlavorDescription) })
						e.Field("image", func(e *jx.Encoder) {
							if l.FlavorImage == "" {
								e.Null()
								return
							}
							e.Str(h.imageURL(l.FlavorImage))
						})
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Str(l.UnitPrice.StringFixed(2)) })
						e.Field("subtotal", func(e *jx.Encoder) { e.Str(l.Subtotal.StringFixed(2)) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Str(d.Quote.TotalString()) })
	})
}
