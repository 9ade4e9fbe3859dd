package jwtmiddleware

import (
	"net/http"
	"strings"
)

// TokenExtractor is a function that takes a request as input and returns
// either a token or an error. An error should only be returned if an attempt
// to specify a token was found, but the information was somehow incorrectly
// formed. In the case where a token is simply not present, this should not
// be treated as an error. An empty string should be returned in that case.
type TokenExtractor func(r *http.Request) (string, error)

// bearerPrefix is matched case-sensitively, with exactly one space.
const bearerPrefix = "Bearer "

// DefaultFallbackHeaders are consulted, in order, when Authorization is empty.
// Google API Gateway and some ingress proxies move the caller's header there.
var DefaultFallbackHeaders = []string{"X-Forwarded-Authorization", "X-Original-Authorization"}

// AuthHeaderTokenExtractor takes a request and extracts the token from the
// Authorization header, falling back to DefaultFallbackHeaders only when
// Authorization is empty. A value that is not exactly "Bearer <token>" counts
// as absent.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	return HeaderTokenExtractor(append([]string{"Authorization"}, DefaultFallbackHeaders...)...)(r)
}

// HeaderTokenExtractor returns a TokenExtractor reading the first non-empty
// header of headers. Only that header is parsed: a malformed value does not
// fall through to the next one.
func HeaderTokenExtractor(headers ...string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, name := range headers {
			if value := r.Header.Get(name); value != "" {
				return ParseBearer(value), nil
			}
		}
		return "", nil
	}
}

// ParseBearer returns the token of a "Bearer <token>" value, or "" when value
// has any other shape.
func ParseBearer(value string) string {
	token, ok := strings.CutPrefix(value, bearerPrefix)
	if !ok || token == "" || strings.ContainsAny(token, " \t\r\n") {
		return ""
	}
	return token
}

// CookieTokenExtractor builds a TokenExtractor that takes a request and
// extracts the token from the cookie using the passed in cookieName.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			return "", nil // No cookie, then no JWT, so no error.
		}
		return cookie.Value, nil
	}
}

// ParameterTokenExtractor returns a TokenExtractor that extracts
// the token from the specified query string parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty token. If a TokenExtractor
// returns an error that error is immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
