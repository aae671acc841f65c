// Package bookingref generates human-readable booking codes.
package bookingref

import (
	"fmt"
	"math/rand/v2"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// New returns a code of the form AK12345-ABCDEF. Codes are random and not
// checked for collisions against the ledger; the collision probability is
// accepted as a known limitation.
func New() string {
	num := 10000 + rand.IntN(90000)

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = letters[rand.IntN(len(letters))]
	}
	return fmt.Sprintf("AK%d-%s", num, suffix)
}
