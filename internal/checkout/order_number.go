package checkout

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	orderNumberAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffixLen   = 8
	maxOrderNumberAttempts = 5
)

// NewOrderNumber returns ORD-<year>-<8 random uppercase alphanumerics>.
func NewOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, orderNumberSuffixLen)
	base := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("ORD-%d-%s", now.Year(), suffix), nil
}
