package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/scoop/internal/domain/auth"
)

// HeaderAPIKey carries administrator API keys.
const HeaderAPIKey = "api_key"

var (
	errUnauthenticated = errors.New("authentication required")
	errForbidden       = errors.New("access denied")
)

// TokenVerifier validates customer bearer tokens.
type TokenVerifier interface {
	Verify(raw string) (int64, error)
}

// Principal is the authenticated caller of a request.
type Principal struct {
	// CustomerID is set for customers authenticated with a bearer token.
	CustomerID int64
	// Admin is set for API keys carrying the admin scope.
	Admin bool
	// KeyName names the API key used, if any.
	KeyName string
}

// CanAccessCustomer reports whether p may act on behalf of customerID.
func (p Principal) CanAccessCustomer(customerID int64) bool {
	return p.Admin || (p.CustomerID != 0 && p.CustomerID == customerID)
}

// Authenticator resolves the caller from API keys or bearer tokens.
type Authenticator struct {
	apikeys auth.Repository
	pepper  []byte
	tokens  TokenVerifier
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(apikeys auth.Repository, pepper []byte, tokens TokenVerifier) *Authenticator {
	return &Authenticator{apikeys: apikeys, pepper: pepper, tokens: tokens}
}

// Authenticate returns the caller of r. API keys take precedence over
// bearer tokens.
func (a *Authenticator) Authenticate(r *http.Request) (Principal, error) {
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		return a.authenticateKey(r.Context(), key)
	}
	if raw, ok := bearerToken(r); ok {
		id, err := a.tokens.Verify(raw)
		if err != nil {
			return Principal{}, errors.Wrap(errUnauthenticated, "invalid or expired token")
		}
		return Principal{CustomerID: id}, nil
	}
	return Principal{}, errUnauthenticated
}

func (a *Authenticator) authenticateKey(ctx context.Context, key string) (Principal, error) {
	hash := auth.HashAPIKey(a.pepper, key)
	info, err := a.apikeys.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			return Principal{}, errors.Wrap(errUnauthenticated, "invalid api key")
		}
		return Principal{}, errors.Wrap(err, "find api key")
	}
	// The stored hash must match what we computed.
	if subtle.ConstantTimeCompare([]byte(hash), []byte(info.KeyHash)) != 1 {
		return Principal{}, errors.Wrap(errUnauthenticated, "invalid api key")
	}
	return Principal{Admin: info.HasScope(auth.ScopeAdmin), KeyName: info.Name}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type authedHandler func(w http.ResponseWriter, r *http.Request, p Principal)

// requireAuth admits any authenticated caller.
func (h *Handler) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.auth.Authenticate(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		next(w, r, p)
	}
}

// requireAdmin admits API keys with the admin scope.
func (h *Handler) requireAdmin(next authedHandler) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request, p Principal) {
		if !p.Admin {
			fail(w, r, errForbidden)
			return
		}
		next(w, r, p)
	})
}
