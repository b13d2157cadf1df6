// Package token generates confirmation tokens for pending subscriptions.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the number of symbols in a confirmation token. 25 symbols over a
// 62-character alphabet gives roughly 148 bits of entropy, enough to make
// guessing infeasible and collisions statistically negligible.
const Length = 25

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a new confirmation token: Length symbols drawn uniformly
// and independently from the alphanumeric alphabet using crypto/rand.
func Generate() (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
