// Package handlers is the HTTP layer: decode the request, call one service
// method, encode the response. Authentication and membership are resolved by
// middleware and read back from the request context.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/cordlite/models"
)

type contextKey string

// ClaimsContextKey carries the verified *models.TokenClaims.
const ClaimsContextKey contextKey = "claims"

// MembershipContextKey carries the caller's *models.Membership for the
// {serverId} in the path.
const MembershipContextKey contextKey = "membership"

const maxBodyBytes = 1 << 20

func claimsFrom(r *http.Request) (*models.TokenClaims, bool) {
	c, ok := r.Context().Value(ClaimsContextKey).(*models.TokenClaims)
	return c, ok
}

func membershipFrom(r *http.Request) (*models.Membership, bool) {
	m, ok := r.Context().Value(MembershipContextKey).(*models.Membership)
	return m, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
