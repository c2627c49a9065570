package server

import (
	"net"
	"strconv"
	"strings"

	"github.com/dragonium-labs/lazyvolet/config"
)

// rewriteServerProperties keeps the backend's own server.properties in
// agreement with what lazyvolet needs to supervise it: a reachable
// status port, and, if RCON is enabled, a matching port and password.
// Idempotent by way of config.RewriteProperties itself.
func rewriteServerProperties(cfg config.Config) error {
	changes := map[string]string{
		"enable-status": "true",
	}

	if port := portOf(cfg.Server.Address); port != "" {
		changes["server-port"] = port
	}

	if !sameHost(cfg.Public.Address, cfg.Server.Address) {
		changes["prevent-proxy-connections"] = "false"
	}

	if cfg.RCON.Enabled {
		changes["enable-rcon"] = "true"
		changes["rcon.port"] = strconv.Itoa(cfg.RCON.Port)
		changes["rcon.password"] = cfg.RCON.Password
	}

	return config.RewriteProperties(cfg.Server.Directory, changes)
}

func portOf(addr string) string {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return p
}

func sameHost(a, b string) bool {
	ah, _, errA := net.SplitHostPort(a)
	bh, _, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	return strings.EqualFold(ah, bh)
}
