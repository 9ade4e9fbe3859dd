// Package testkeys mints RSA keys, JWK sets and Firebase-shaped ID tokens for
// tests across the module.
package testkeys

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ProjectID is the Firebase project tokens are minted for by default.
const ProjectID = "roster-test"

// Issuer is the issuer of tokens minted for ProjectID.
const Issuer = "https://securetoken.google.com/" + ProjectID

// Key is an RSA signing key with its key id.
type Key struct {
	Private *rsa.PrivateKey
	KID     string
}

// NewKey generates a 2048-bit RSA key.
func NewKey(t testing.TB, kid string) *Key {
	t.Helper()

	private, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &Key{Private: private, KID: kid}
}

// Public returns the key's public half as a JWK with kid and alg set.
func (k *Key) Public(t testing.TB) jwk.Key {
	t.Helper()

	pub, err := jwk.PublicKeyOf(k.Private)
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	if err := pub.Set(jwk.KeyIDKey, k.KID); err != nil {
		t.Fatalf("set kid: %v", err)
	}
	if err := pub.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("set alg: %v", err)
	}
	return pub
}

// JWKS returns the JSON JWK set holding the public halves of keys.
func JWKS(t testing.TB, keys ...*Key) []byte {
	t.Helper()

	set := jwk.NewSet()
	for _, k := range keys {
		if err := set.AddKey(k.Public(t)); err != nil {
			t.Fatalf("add key: %v", err)
		}
	}

	payload, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return payload
}

// Firebase returns a builder prefilled with the claims Firebase puts in an ID
// token for ProjectID, issued at now and expiring an hour later.
func Firebase(subject string, now time.Time) *jwt.Builder {
	return jwt.NewBuilder().
		Issuer(Issuer).
		Audience([]string{ProjectID}).
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Claim("auth_time", now.Unix()).
		Claim("email", subject+"@roster.test").
		Claim("email_verified", true).
		Claim("firebase", map[string]any{"sign_in_provider": "password"})
}

// Sign builds and signs the token with RS256. The key's kid goes into the
// protected header unless it is empty.
func (k *Key) Sign(t testing.TB, builder *jwt.Builder) string {
	t.Helper()

	token, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return k.SignToken(t, token, jwa.RS256)
}

// SignToken signs an already built token with the given algorithm.
func (k *Key) SignToken(t testing.TB, token jwt.Token, alg jwa.SignatureAlgorithm) string {
	t.Helper()

	jwkPriv, err := jwk.FromRaw(k.Private)
	if err != nil {
		t.Fatalf("private key jwk: %v", err)
	}
	if err := jwkPriv.Set(jwk.AlgorithmKey, alg); err != nil {
		t.Fatalf("set alg: %v", err)
	}
	if k.KID != "" {
		if err := jwkPriv.Set(jwk.KeyIDKey, k.KID); err != nil {
			t.Fatalf("set kid: %v", err)
		}
	}

	signed, err := jwt.Sign(token, jwt.WithKey(alg, jwkPriv))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

// JWKSServer is an httptest server publishing a JWK set that tests can rotate
// or break, and that counts the requests it receives.
type JWKSServer struct {
	*httptest.Server

	mu       sync.Mutex
	payload  []byte
	status   int
	requests atomic.Int32
}

// NewJWKSServer starts a server publishing keys. It is closed on cleanup.
func NewJWKSServer(t testing.TB, keys ...*Key) *JWKSServer {
	t.Helper()

	s := &JWKSServer{payload: JWKS(t, keys...), status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)

		s.mu.Lock()
		status, payload := s.status, s.payload
		s.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(s.Close)

	return s
}

// SetKeys replaces the published set.
func (s *JWKSServer) SetKeys(t testing.TB, keys ...*Key) {
	t.Helper()

	payload := JWKS(t, keys...)
	s.SetPayload(payload)
}

// SetPayload replaces the published body verbatim.
func (s *JWKSServer) SetPayload(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payload = payload
	s.status = http.StatusOK
}

// Fail makes the server answer every request with status.
func (s *JWKSServer) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

// Requests returns how many requests the server has received.
func (s *JWKSServer) Requests() int {
	return int(s.requests.Load())
}
