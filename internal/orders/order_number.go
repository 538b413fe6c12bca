package orders

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	orderNumberPrefix    = "ORD"
	orderNumberSuffixLen = 6
	base36Alphabet       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewOrderNumber returns "ORD-<unix ms>-<6 uppercase base36 chars>". It is a
// display identifier; payment_reference is the uniqueness key.
func NewOrderNumber(now time.Time) string {
	var suffix strings.Builder
	suffix.Grow(orderNumberSuffixLen)
	for range orderNumberSuffixLen {
		suffix.WriteByte(base36Alphabet[rand.IntN(len(base36Alphabet))])
	}
	return orderNumberPrefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix.String()
}
