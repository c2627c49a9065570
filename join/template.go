package join

import (
	"strconv"
	"strings"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/state"
)

// formatMessage expands the placeholders spec.md §4.5 documents for the
// Kick and Lobby messages.
func formatMessage(msg string, cfg config.Config, srv *state.Server) string {
	elapsed := int(time.Since(srv.LastActive()).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	msg = strings.ReplaceAll(msg, "{motd_sleeping}", cfg.Motd.Sleeping)
	msg = strings.ReplaceAll(msg, "{motd_starting}", cfg.Motd.Starting)
	msg = strings.ReplaceAll(msg, "{elapsed}", strconv.Itoa(elapsed))
	return msg
}
