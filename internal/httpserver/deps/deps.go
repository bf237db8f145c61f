package deps

import (
	"time"

	"github.com/MrSnakeDoc/inkpad/internal/auth"
	"github.com/MrSnakeDoc/inkpad/internal/dashboard"
	"github.com/MrSnakeDoc/inkpad/internal/domain"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
	"github.com/MrSnakeDoc/inkpad/internal/version"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Build        version.Info
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to reach the dashboard
	AllowedCIDRS []string         // IPs allowed to access healthz/readyz/infra endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Store       domain.Store // datastore, used by readyz/infra for liveness
	StoreDriver string       // "redis" | "sqlite" | "memory"

	Dashboard *dashboard.Orchestrator
	Verifier  *auth.Verifier
	LoginURL  string // where unauthenticated browsers are sent

	PasswordBurst        int // change-password attempts allowed at once per identity
	PasswordRefillPerMin int // change-password attempts regained per minute
}

// Now returns d.TimeNow() or time.Now when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
