// Package profile exposes the authenticated caller's profile: read and
// the small set of caller-editable fields.
package profile

import (
	"net/http"

	apperrors "github.com/fivemhub/forumd/internal/http/errors"
	"github.com/fivemhub/forumd/internal/http/dto"
	"github.com/fivemhub/forumd/internal/http/helpers"
	"github.com/fivemhub/forumd/internal/http/middlewares"
	"github.com/fivemhub/forumd/internal/store/core"
)

// Controller handles the /api/profile routes. All of them run behind
// Authenticate.
type Controller struct {
	users core.UserRepository
}

func New(users core.UserRepository) *Controller {
	return &Controller{users: users}
}

// Get returns the caller's own profile.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.UserFromContext(r.Context())
	if !ok {
		apperrors.WriteError(w, apperrors.ErrUnauthenticated)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ProfileResponse{User: user})
}

// Update changes the caller-editable fields. Empty fields keep their
// current value.
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.UserFromContext(r.Context())
	if !ok {
		apperrors.WriteError(w, apperrors.ErrUnauthenticated)
		return
	}

	var req dto.UpdateProfileRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.DisplayName == "" && req.ProfileTheme == "" {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("nothing to update"))
		return
	}

	updated, err := c.users.UpdateProfile(r.Context(), user.ID, req.DisplayName, req.ProfileTheme)
	if err != nil {
		apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ProfileResponse{User: updated})
}
