package deps

import (
	"time"

	"github.com/voxroute/switchboard/internal/health"
	"github.com/voxroute/switchboard/internal/logger"
	"github.com/voxroute/switchboard/internal/proxy"
	"github.com/voxroute/switchboard/internal/registry"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Registry *registry.Registry // resolution policy + declared-mode writes
	Proxy    *proxy.Proxy       // request routing (local/remote/fallback)
	Board    *health.Board      // health snapshots, fed by prober + hints

	ProbeTrigger chan struct{} // channel to trigger an immediate health sweep

	DispatchBurst     int  // rate-limit burst per client IP on /api/dispatch (0 = off)
	DispatchRefillMin int  // tokens refilled per IP per minute
	TrustProxy        bool // true if running behind a trusted reverse proxy
}
