package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// NormalizeCardNumber strips spaces and dashes from a card number.
func NormalizeCardNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// FingerprintCard returns a bcrypt hash of the card number so that a stored
// payment can later be matched against a card without keeping the number.
func FingerprintCard(number string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(NormalizeCardNumber(number)), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MatchCard safely compares a fingerprint with a card number.
func MatchCard(fingerprint, number string) bool {
	return bcrypt.CompareHashAndPassword([]byte(fingerprint), []byte(NormalizeCardNumber(number))) == nil
}

// LastFour returns the last four digits of a card number.
func LastFour(number string) string {
	n := NormalizeCardNumber(number)
	if len(n) < 4 {
		return n
	}
	return n[len(n)-4:]
}
