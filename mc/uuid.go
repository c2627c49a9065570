package mc

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// OfflinePlayerUUID computes the UUID a vanilla server assigns an
// offline-mode player, Java's `UUID.nameUUIDFromBytes("OfflinePlayer:"+
// username)`: an MD5 hash of the name with its version/variant bits
// overwritten to mark it a (namespace-less) version 3 UUID. Ported from
// original_source/src/mc/uuid.rs; google/uuid supplies the byte-to-string
// formatting rather than reimplementing UUID's text form by hand.
func OfflinePlayerUUID(username string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}
