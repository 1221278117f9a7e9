// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment
variables, including the consensus policy overrides.

# Precedence

CLI flags take precedence over environment variables. A .env file in the
working directory is loaded (via godotenv) before env lookups. Required
settings with no default cause an error.

# Settings

Required:

  - DATABASE_URL (-d): database connection string
  - ORGANIZER_KEY_SALT (--organizer-salt): secret for organizer key HMAC
  - INVITE_SLUG_SALT (--slug-salt): secret for invite slug generation

Optional:

  - PORT (-p): server port (default: 3319)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SEARCH_URL (--search-url): activity search service; without it, a
    contested slot escalates instead of fetching alternatives

Consensus policy overrides (optional, env only):

  - QUORUM_FRACTION (default 0.60)
  - SPLIT_THRESHOLD (default 0.25)
  - CONFIRM_THRESHOLD (default 0.70)
  - MAX_ALTERNATIVES (default 3)
  - MAX_RESOLUTION_ROUNDS (default 2)
  - ALTERNATIVE_FETCH_TIMEOUT_MS (default 8000)

Fractions must be in (0, 1]; counts and the timeout must be positive.
*/
package cliparse
