package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	trackingPrefix   = "TRK"
	trackingSerialLo = 100000
	trackingSerialHi = 999999
)

// GenerateTrackingCode returns a code of the form TRK-YYYYMMDD-NNNNNN for the
// given day. Uniqueness is enforced by the store, which retries on collision.
func GenerateTrackingCode(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(trackingSerialHi-trackingSerialLo+1))
	if err != nil {
		return "", fmt.Errorf("generate tracking code: %w", err)
	}
	return fmt.Sprintf("%s-%s-%d", trackingPrefix, now.UTC().Format("20060102"), n.Int64()+trackingSerialLo), nil
}
