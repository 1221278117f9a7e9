// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and request/response helpers.

# Middleware

  - WithLogging: logs request start/completion with method, path, duration
  - CORS: allows cross-origin requests, handles OPTIONS preflight

# Helpers

  - JSONResponse: writes a JSON response with status code
  - ErrorResponse: writes a standardized JSON error
  - ParseJSONBody: decodes a request body into a struct
  - GetClientIP: extracts client IP from X-Forwarded-For, X-Real-IP,
    or RemoteAddr
*/
package middleware
