//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestProbes(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := doGet(t, path)
			defer resp.Body.Close()
			expectStatus(t, resp, http.StatusOK)

			body := decodeJSON[healthResponse](t, resp)
			if body.Status != "ok" {
				t.Fatalf("expected status ok, got %q (checks: %v)", body.Status, body.Checks)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	resp := doGet(t, "/")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[struct {
		Name      string   `json:"name"`
		Endpoints []string `json:"endpoints"`
	}](t, resp)
	if body.Name != "scoop" {
		t.Errorf("name: got %q", body.Name)
	}
	if len(body.Endpoints) == 0 {
		t.Error("endpoints list is empty")
	}
}
