package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newID builds an identifier that stays unique while the device is offline:
// a type prefix, the creation time in ms, and a random fragment.
func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

func nowMillis() int64 { return time.Now().UnixMilli() }
