package testutil

import (
	"net/http"

	id "samved/pkg/domain"
	"samved/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context.
// This simulates what the admin auth middleware does after verifying a token.
func WithActor(req *http.Request, actorID id.IdentityID, role id.Role) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actorID, role))
}

// WithAdmin adds a freshly generated admin actor to the request context.
func WithAdmin(req *http.Request) (*http.Request, id.IdentityID) {
	adminID := id.NewIdentityID()
	return WithActor(req, adminID, id.RoleAdmin), adminID
}
