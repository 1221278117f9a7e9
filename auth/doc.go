// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and validation for the API.

# Organizer Keys

Organizer keys are HMAC-SHA256 hashes of the trip ID using a server-side
salt. They are deterministic (same trip + salt = same key) and verifiable
without database lookups:

	key := auth.GenerateOrganizerKey(tripID, salt)
	err := auth.ValidateOrganizerKey(tripID, key, salt)

# Member Tokens

Member tokens are 192-bit random values, base64url encoded. They identify
trip members across vote submissions and allow vote changes:

	token, err := auth.GenerateMemberToken()

# Invite Slugs

Invite slugs are short, deterministic, URL-friendly identifiers derived
from the trip ID via HMAC and base62 encoding:

	slug := auth.GenerateInviteSlug(tripID, salt)

# IP Hashing

For privacy, client IPs are stored as salted one-way hashes:

	hash := auth.HashIP(clientIP, salt)

# Security Notes

  - Organizer keys and invite slugs require server-side salts
    (ORGANIZER_KEY_SALT, INVITE_SLUG_SALT)
  - Member tokens use crypto/rand for generation
  - Key comparison uses constant-time hmac.Equal
*/
package auth
