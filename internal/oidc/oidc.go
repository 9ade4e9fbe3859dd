package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// maxDocumentBytes caps the size of a discovery document.
const maxDocumentBytes = 1 << 20

// ErrIssuerMismatch is returned when a discovery document names a different
// issuer than the one it was fetched for.
var ErrIssuerMismatch = errors.New("discovery document issuer mismatch")

// Document is the part of an OpenID provider configuration the key cache
// needs.
type Document struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// DocumentURL returns issuer's /.well-known/openid-configuration URL.
func DocumentURL(issuer *url.URL) string {
	u := *issuer
	u.Path = path.Join(u.Path, ".well-known/openid-configuration")
	return u.String()
}

// Discover fetches and checks issuer's discovery document. The document must
// name issuer itself and carry an absolute jwks_uri.
func Discover(ctx context.Context, client *http.Client, issuer *url.URL) (*Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	target := DocumentURL(issuer)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}

	if want := issuer.String(); doc.Issuer != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrIssuerMismatch, doc.Issuer, want)
	}
	jwksURI, err := url.Parse(doc.JWKSURI)
	if err != nil || !jwksURI.IsAbs() {
		return nil, fmt.Errorf("discovery document has no usable jwks_uri %q", doc.JWKSURI)
	}

	return &doc, nil
}
