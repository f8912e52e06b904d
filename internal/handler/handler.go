// Package handler exposes the shop operations over HTTP with JSON bodies.
package handler

import (
	"context"
	"net/http"

	"github.com/xenking/scoop/internal/domain/customer"
	"github.com/xenking/scoop/internal/domain/flavor"
	"github.com/xenking/scoop/internal/domain/order"
)

// FlavorService manages the flavor catalog.
type FlavorService interface {
	List(ctx context.Context) ([]flavor.Flavor, error)
	Get(ctx context.Context, id int64) (*flavor.Flavor, error)
	Create(ctx context.Context, in flavor.Input) (*flavor.Flavor, error)
	Update(ctx context.Context, id int64, in flavor.Input) (*flavor.Flavor, error)
	Delete(ctx context.Context, id int64) error
}

// CustomerService manages customer accounts and sessions.
type CustomerService interface {
	Register(ctx context.Context, reg customer.Registration) (*customer.Customer, error)
	Login(ctx context.Context, email, password string) (*customer.Session, error)
	Get(ctx context.Context, id int64) (*customer.Customer, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) (*customer.Customer, error)
}

// OrderService runs the order workflow.
type OrderService interface {
	CreateOrder(ctx context.Context, customerID int64, lines []order.Line) (int64, error)
	GetOrderDetail(ctx context.Context, orderID int64) (*order.Detail, error)
	SetStatus(ctx context.Context, orderID int64, status string) error
	GetOrdersForCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
	ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Summary, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative flavor image paths. When empty,
	// image paths are returned as stored.
	ImageBaseURL string
	// Version is reported by the index endpoint.
	Version string
}

// Handler serves the REST API.
type Handler struct {
	flavors   FlavorService
	customers CustomerService
	orders    OrderService
	auth      *Authenticator

	imageBaseURL string
	version      string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	flavors FlavorService,
	customers CustomerService,
	orders OrderService,
	authn *Authenticator,
) *Handler {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		flavors:      flavors,
		customers:    customers,
		orders:       orders,
		auth:         authn,
		imageBaseURL: cfg.ImageBaseURL,
		version:      version,
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)

	mux.HandleFunc("GET /api/flavors", h.listFlavors)
	mux.HandleFunc("GET /api/flavors/{id}", h.getFlavor)
	mux.HandleFunc("POST /api/flavors", h.requireAdmin(h.createFlavor))
	mux.HandleFunc("PUT /api/flavors/{id}", h.requireAdmin(h.updateFlavor))
	mux.HandleFunc("DELETE /api/flavors/{id}", h.requireAdmin(h.deleteFlavor))

	mux.HandleFunc("POST /api/customers", h.register)
	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("GET /api/customers/{id}", h.requireAuth(h.getCustomer))
	mux.HandleFunc("PUT /api/customers/{id}", h.requireAuth(h.updateCustomer))
	mux.HandleFunc("GET /api/customers/{id}/orders", h.requireAuth(h.customerOrders))

	mux.HandleFunc("POST /api/orders", h.requireAuth(h.createOrder))
	mux.HandleFunc("GET /api/orders", h.requireAdmin(h.listOrders))
	mux.HandleFunc("GET /api/orders/{id}", h.requireAuth(h.getOrder))
	mux.HandleFunc("PUT /api/orders/{id}/status", h.requireAdmin(h.setOrderStatus))
}

// Routes returns a mux serving the API.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

var endpoints = []string{
	"GET /api/flavors",
	"GET /api/flavors/{id}",
	"POST /api/flavors",
	"PUT /api/flavors/{id}",
	"DELETE /api/flavors/{id}",
	"POST /api/customers",
	"POST /api/login",
	"GET /api/customers/{id}",
	"PUT /api/customers/{id}",
	"GET /api/customers/{id}/orders",
	"POST /api/orders",
	"GET /api/orders",
	"GET /api/orders/{id}",
	"PUT /api/orders/{id}/status",
}
