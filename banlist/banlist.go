// Package banlist loads and serves the backend's banned-ips.json,
// reloading it whenever the file on disk changes.
package banlist

import (
	"encoding/json"
	"net"
	"os"
	"sort"
	"sync"
	"time"
)

// FileName is the file a Minecraft server keeps its IP bans in.
const FileName = "banned-ips.json"

// entry is one record in banned-ips.json, following vanilla's own
// format: created/source/expires/reason are all free-form strings, and
// an absent or non-parseable expires means "banned forever".
type entry struct {
	IP      string `json:"ip"`
	Created string `json:"created"`
	Source  string `json:"source"`
	Expires string `json:"expires"`
	Reason  string `json:"reason"`
}

const expiryForever = "forever"

func (e entry) isBanned(now time.Time) bool {
	if e.Expires == "" {
		return true
	}
	if ignoreCase(e.Expires) == expiryForever {
		return true
	}
	expiry, err := time.Parse("2006-01-02 15:04:05 -0700", e.Expires)
	if err != nil {
		return true
	}
	return expiry.After(now)
}

func ignoreCase(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// List is a read-preferring set of banned IPs, reloaded by Watcher on
// filesystem events. Lookups are O(log n) against a sorted slice the
// way spec.md's BanList
// describes, rebuilt wholesale on every reload rather than mutated
// in place.
type List struct {
	mu      sync.RWMutex
	sorted  []string
	entries map[string]entry
}

// New returns an empty List; call Load, or use Watch for it to reload
// itself as banned-ips.json changes on disk.
func New() *List {
	return &List{entries: map[string]entry{}}
}

// IsBanned reports whether ip currently has an active ban.
func (l *List) IsBanned(ip net.IP) bool {
	key := ip.String()
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := sort.SearchStrings(l.sorted, key)
	if i >= len(l.sorted) || l.sorted[i] != key {
		return false
	}
	return l.entries[key].isBanned(time.Now())
}

// Load reads banned-ips.json from dir and replaces the current set.
// A missing file clears the list rather than erroring, since banning is
// an optional feature many configurations never enable.
func (l *List) Load(dir string) error {
	raw, err := os.ReadFile(dir + "/" + FileName)
	if os.IsNotExist(err) {
		l.replace(nil)
		return nil
	}
	if err != nil {
		return err
	}

	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return err
	}
	l.replace(entries)
	return nil
}

func (l *List) replace(entries []entry) {
	byIP := make(map[string]entry, len(entries))
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		byIP[e.IP] = e
		keys = append(keys, e.IP)
	}
	sort.Strings(keys)

	l.mu.Lock()
	l.entries = byIP
	l.sorted = keys
	l.mu.Unlock()
}
