package banlist

import (
	"net"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeBanFile(t, dir, `[]`)

	list := New()
	w, err := Watch(dir, list)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if list.IsBanned(net.ParseIP("1.2.3.4")) {
		t.Fatal("nothing should be banned yet")
	}

	writeBanFile(t, dir, `[{"ip":"1.2.3.4","expires":"forever"}]`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if list.IsBanned(net.ParseIP("1.2.3.4")) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not pick up the updated ban list in time")
}

func TestWatchMissingDirErrors(t *testing.T) {
	list := New()
	_, err := Watch(filepath.Join(t.TempDir(), "nope"), list)
	if err == nil {
		t.Fatal("expected an error watching a nonexistent directory")
	}
}
