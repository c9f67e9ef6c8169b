// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the credential helpers used by the registration and
login endpoints. The voting core never calls into this package; it only
receives the voter id that a verified token carries.

# Citizen IDs

Citizen IDs are exactly five ASCII digits:

	err := auth.ValidateCitizenID("12345")

# Passwords

Passwords must be at least six characters and are stored as bcrypt hashes
(golang.org/x/crypto/bcrypt, cost 8):

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, password) // ErrWrongPassword on mismatch

# Voter Tokens

Voter tokens bind a voter id and an issue time to an HMAC-SHA256 signature:

	token := auth.GenerateVoterToken(voterID, salt, time.Now())
	voterID, err := auth.ParseVoterToken(token, salt, time.Now(), 12*time.Hour)

The format is "<voter_id>.<issued>.<mac>": issued is the Unix time in base
36 and the MAC is URL-safe base64 without padding. Tokens older than the
TTL fail with ErrTokenExpired. There is no logout; a token stays valid
until it expires or TOKEN_SALT is rotated.

# ID Generation

Random UUIDs for voter and ballot records:

	id := auth.GenerateID()
*/
package auth
