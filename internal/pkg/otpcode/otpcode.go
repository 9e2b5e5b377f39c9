package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowest  = 100000
	highest = 999999
)

// Generate returns a 6-digit numeric code drawn uniformly from [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(highest-lowest+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+lowest), nil
}
