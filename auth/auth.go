// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidCitizenID = errors.New("citizen id must be exactly 5 digits")
	ErrWeakPassword     = errors.New("password must be at least 6 characters")
	ErrWrongPassword    = errors.New("wrong password")
)

// PasswordCost matches the cost the voter roll was originally hashed with.
const PasswordCost = 8

const minPasswordLen = 6

// GenerateID creates a random UUID string
func GenerateID() string {
	return uuid.NewString()
}

// ValidateCitizenID checks the 5-digit citizen id format
func ValidateCitizenID(citizenID string) error {
	if len(citizenID) != 5 {
		return ErrInvalidCitizenID
	}
	for i := 0; i < len(citizenID); i++ {
		if citizenID[i] < '0' || citizenID[i] > '9' {
			return ErrInvalidCitizenID
		}
	}
	return nil
}

// HashPassword returns the bcrypt hash of password after checking its length
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a stored bcrypt hash
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrWrongPassword
	}
	return err
}

// GenerateVoterToken creates an HMAC-signed token carrying the voter id
// and the time it was issued. It is verifiable without a session store.
func GenerateVoterToken(voterID, salt string, issuedAt time.Time) string {
	payload := voterID + "." + strconv.FormatInt(issuedAt.Unix(), 36)
	return payload + "." + sign(payload, salt)
}

// ParseVoterToken verifies the token signature and returns the voter id.
// Tokens issued more than ttl before now are rejected with ErrTokenExpired;
// a ttl of zero or less disables the check.
func ParseVoterToken(token, salt string, now time.Time, ttl time.Duration) (string, error) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", ErrInvalidToken
	}
	payload, mac := token[:i], token[i+1:]

	j := strings.LastIndexByte(payload, '.')
	if j <= 0 || j == len(payload)-1 {
		return "", ErrInvalidToken
	}
	voterID := payload[:j]
	issued, err := strconv.ParseInt(payload[j+1:], 36, 64)
	if err != nil {
		return "", ErrInvalidToken
	}

	if !hmac.Equal([]byte(mac), []byte(sign(payload, salt))) {
		return "", ErrInvalidSignature
	}
	if ttl > 0 && now.Sub(time.Unix(issued, 0)) > ttl {
		return "", ErrTokenExpired
	}
	return voterID, nil
}

func sign(payload, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(payload))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}
