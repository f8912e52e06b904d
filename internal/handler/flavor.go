package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/scoop/internal/domain/flavor"
)

func (h *Handler) listFlavors(w http.ResponseWriter, r *http.Request) {
	flavors, err := h.flavors.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, f := range flavors {
				h.encodeFlavor(e, f)
			}
		})
	})
}

func (h *Handler) getFlavor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f, err := h.flavors.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeFlavor(e, *f) })
}

func decodeFlavorInput(r *http.Request) (flavor.Input, error) {
	var in flavor.Input
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			in.Name, err = d.Str()
		case "description":
			in.Description, err = d.Str()
		case "price":
			in.Price, err = decodeDecimal(d)
		case "image":
			if d.Next() == jx.Null {
				return d.Null()
			}
			in.Image, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	return in, err
}

func (h *Handler) createFlavor(w http.ResponseWriter, r *http.Request, _ Principal) {
	in, err := decodeFlavorInput(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f, err := h.flavors.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/flavors/"+strconv.FormatInt(f.ID, 10))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeFlavor(e, *f) })
}

func (h *Handler) updateFlavor(w http.ResponseWriter, r *http.Request, _ Principal) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	in, err := decodeFlavorInput(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f, err := h.flavors.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeFlavor(e, *f) })
}

func (h *Handler) deleteFlavor(w http.ResponseWriter, r *http.Request, _ Principal) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.flavors.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
