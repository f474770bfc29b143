package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Generator produces unguessable one-time codes.
type Generator interface {
	Code(length int) (string, error)
}

type digitGenerator struct{}

// NewDigitGenerator returns a generator for numeric codes drawn from
// crypto/rand.
func NewDigitGenerator() Generator {
	return digitGenerator{}
}

var ten = big.NewInt(10)

func (digitGenerator) Code(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code digit: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}
