// Package tracking generates human-readable shipment identifiers.
package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const prefix = "LIB"

// NewID produces an identifier of the form LIB-YYYYMMDD-6HEX, e.g.
// LIB-20260115-3FA2C1. The 24 random bits are enough to avoid collisions
// within a day; uniqueness is not re-checked against existing ids.
func NewID() string {
	return newIDAt(time.Now().UTC())
}

func newIDAt(t time.Time) string {
	buf := make([]byte, 3)
	// rand.Read never returns an error on supported platforms
	_, _ = rand.Read(buf)

	return fmt.Sprintf("%s-%s-%s",
		prefix,
		t.Format("20060102"),
		strings.ToUpper(hex.EncodeToString(buf)),
	)
}
