package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// TokenCookieName is the cookie browsers present the stream token in
const TokenCookieName = "stream_token"

// TokenQueryParam is the query parameter media elements present the token in,
// since <img> and <audio> cannot set headers
const TokenQueryParam = "token"

// ExtractJWTFromAuthHeader extracts the JWT token from an Authorization header.
// Expected format: "Bearer {token}"
func ExtractJWTFromAuthHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is empty")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return parts[1], nil
}

// ExtractJWTFromRequest looks for a token in the Authorization header, then
// the stream_token cookie, then the token query parameter
func ExtractJWTFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token, err := ExtractJWTFromAuthHeader(authHeader)
		if err == nil {
			return token, nil
		}
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, nil
	}

	return "", fmt.Errorf("no authentication token found in header, cookie or query")
}
