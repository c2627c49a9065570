package proxy

import (
	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/state"
)

// buildStatus synthesizes the StatusResponse fields lazyvolet answers
// with while the backend isn't necessarily reachable, following
// original_source/src/status.rs's server_status(): version and protocol
// always come from [public], max comes from the last live poll when one
// exists, online is always 0, and description is either the backend's
// own (motd.from_server) or the configured starting text while Starting
// and the sleeping text in every other lifecycle.
func buildStatus(cfg config.Config, srv *state.Server) (name string, protocol, max, online int, description, favicon string) {
	name = cfg.Public.Version
	protocol = cfg.Public.Protocol

	live, hasLive := srv.LiveStatus()
	if hasLive {
		max = live.Max
	}

	lifecycle := srv.Lifecycle()

	if cfg.Motd.FromServer && hasLive {
		return name, protocol, max, online, live.Description, live.Favicon
	}

	switch lifecycle {
	case state.Starting:
		description = cfg.Motd.Starting
	default:
		description = cfg.Motd.Sleeping
	}
	return name, protocol, max, online, description, favicon
}
