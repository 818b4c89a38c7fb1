package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// errNotOwner signals that the resource exists but belongs to someone else.
var errNotOwner = errors.New("actor does not own resource")

// assertOwner enforces the ownership guard on mutations. Existence is
// checked by the caller first, so a missing resource is reported as not
// found rather than forbidden.
func assertOwner(ownerID, actorID string) error {
	if actorID == "" || ownerID != actorID {
		return errNotOwner
	}
	return nil
}

// requireUser pulls the authenticated user off the context. The auth
// middleware guarantees it is present on protected routes; a miss here means
// a route was wired without the middleware.
func requireUser(ctx context.Context, w http.ResponseWriter) (models.User, bool) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return models.User{}, false
	}
	return user, true
}

// decodeJSON reads a JSON request body into dst with a defensive size cap.
func decodeJSON(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
}

// listParamsFromRequest maps the shared list query parameters onto ListParams.
// Invalid numbers fall back to the defaults applied by Normalize.
func listParamsFromRequest(r *http.Request) repositories.ListParams {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	return repositories.ListParams{
		Page:     page,
		Limit:    limit,
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		Query:    q.Get("query"),
		OwnerID:  q.Get("userId"),
	}
}
