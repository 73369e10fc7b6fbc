// Package health answers liveness probes with the state of the two
// backing stores.
package health

import (
	"net/http"

	"github.com/fivemhub/forumd/internal/cache"
	"github.com/fivemhub/forumd/internal/http/helpers"
	"github.com/fivemhub/forumd/internal/store/core"
)

type Controller struct {
	users core.UserRepository
	cache cache.Client
}

func New(users core.UserRepository, c cache.Client) *Controller {
	return &Controller{users: users, cache: c}
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Check reports 200 when both stores answer, 503 otherwise.
func (c *Controller) Check(w http.ResponseWriter, r *http.Request) {
	s := status{Status: "ok", Database: "ok", Cache: "ok"}
	code := http.StatusOK

	if err := c.users.Ping(r.Context()); err != nil {
		s.Status, s.Database = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := c.cache.Ping(r.Context()); err != nil {
		s.Status, s.Cache = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}

	helpers.WriteJSON(w, code, s)
}
