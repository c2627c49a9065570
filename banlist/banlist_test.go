package banlist

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeBanFile(t *testing.T, dir string, contents string) {
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsBannedForeverEntry(t *testing.T) {
	dir := t.TempDir()
	writeBanFile(t, dir, `[{"ip":"1.2.3.4","expires":"forever","reason":"griefing"}]`)

	l := New()
	if err := l.Load(dir); err != nil {
		t.Fatal(err)
	}

	if !l.IsBanned(net.ParseIP("1.2.3.4")) {
		t.Error("expected 1.2.3.4 to be banned")
	}
	if l.IsBanned(net.ParseIP("5.6.7.8")) {
		t.Error("did not expect an unlisted IP to be banned")
	}
}

func TestIsBannedExpiredEntry(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-24 * time.Hour).Format("2006-01-02 15:04:05 -0700")
	writeBanFile(t, dir, `[{"ip":"1.2.3.4","expires":"`+past+`"}]`)

	l := New()
	if err := l.Load(dir); err != nil {
		t.Fatal(err)
	}
	if l.IsBanned(net.ParseIP("1.2.3.4")) {
		t.Error("expired ban entry should no longer count as banned")
	}
}

func TestIsBannedFutureExpiry(t *testing.T) {
	dir := t.TempDir()
	future := time.Now().Add(24 * time.Hour).Format("2006-01-02 15:04:05 -0700")
	writeBanFile(t, dir, `[{"ip":"1.2.3.4","expires":"`+future+`"}]`)

	l := New()
	if err := l.Load(dir); err != nil {
		t.Fatal(err)
	}
	if !l.IsBanned(net.ParseIP("1.2.3.4")) {
		t.Error("ban with future expiry should still be active")
	}
}

func TestLoadMissingFileClearsList(t *testing.T) {
	dir := t.TempDir()
	l := New()
	if err := l.Load(dir); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if l.IsBanned(net.ParseIP("1.2.3.4")) {
		t.Error("empty list should ban nobody")
	}
}

func TestReloadReplacesStaleEntries(t *testing.T) {
	dir := t.TempDir()
	writeBanFile(t, dir, `[{"ip":"1.2.3.4","expires":"forever"}]`)

	l := New()
	if err := l.Load(dir); err != nil {
		t.Fatal(err)
	}
	if !l.IsBanned(net.ParseIP("1.2.3.4")) {
		t.Fatal("expected initial ban to be loaded")
	}

	writeBanFile(t, dir, `[]`)
	if err := l.Load(dir); err != nil {
		t.Fatal(err)
	}
	if l.IsBanned(net.ParseIP("1.2.3.4")) {
		t.Error("expected reload to clear the previously banned IP")
	}
}
