/*
Package oidc resolves a JWK endpoint from an issuer's discovery document.

Firebase publishes a discovery document per project at

	https://securetoken.google.com/{project}/.well-known/openid-configuration

whose jwks_uri names the service-account JWK endpoint the key cache fetches.
The key cache only calls into this package when no JWK URL was configured
explicitly, and it remembers the result for the life of the process.

	issuer, _ := url.Parse("https://securetoken.google.com/roster-prod")
	doc, err := oidc.Discover(ctx, client, issuer)
	if err != nil {
	    // network failure, non-200 status, bad JSON, a missing jwks_uri,
	    // or ErrIssuerMismatch
	}
	jwksURI := doc.JWKSURI
*/
package oidc
