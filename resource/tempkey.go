package resource

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// TempKeyPrefix marks engine-generated placeholder keys used during the
// optimistic window of a create. Server-assigned keys never carry it.
const TempKeyPrefix = "tmp-"

// NewTempKey returns a fresh temporary key: time-ordered, random-suffixed,
// and prefixed so it cannot collide with a server-assigned key.
func NewTempKey() string {
	return TempKeyPrefix + ulid.Make().String()
}

// IsTempKey reports whether key was produced by NewTempKey.
func IsTempKey(key string) bool {
	return strings.HasPrefix(key, TempKeyPrefix)
}
