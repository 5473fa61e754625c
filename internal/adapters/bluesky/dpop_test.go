package bluesky

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testJWK(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pad := func(b []byte) string {
		buf := make([]byte, 32)
		copy(buf[32-len(b):], b)
		return base64.RawURLEncoding.EncodeToString(buf)
	}
	raw, err := json.Marshal(map[string]string{
		"kty": "EC",
		"crv": "P-256",
		"x":   pad(key.X.Bytes()),
		"y":   pad(key.Y.Bytes()),
		"d":   pad(key.D.Bytes()),
		"kid": "test-key-1",
	})
	if err != nil {
		t.Fatalf("marshal jwk: %v", err)
	}
	return string(raw), key
}

func TestParseDPoPKeyRoundTrip(t *testing.T) {
	raw, key := testJWK(t)

	parsed, err := ParseDPoPKey(raw)
	if err != nil {
		t.Fatalf("ParseDPoPKey: %v", err)
	}
	if parsed.PublicKey().X.Cmp(key.X) != 0 || parsed.PublicKey().Y.Cmp(key.Y) != 0 {
		t.Fatal("parsed public point does not match source key")
	}
	if got := parsed.KeyID(); got != "test-key-1" {
		t.Fatalf("kid = %q, want test-key-1", got)
	}
}

func TestParseDPoPKeyRejectsWrongCurve(t *testing.T) {
	if _, err := ParseDPoPKey(`{"kty":"EC","crv":"P-384","x":"a","y":"b","d":"c"}`); err == nil {
		t.Fatal("expected error for P-384 key")
	}
	if _, err := ParseDPoPKey(`{"kty":"RSA"}`); err == nil {
		t.Fatal("expected error for RSA key")
	}
}

func TestResourceProofClaims(t *testing.T) {
	raw, key := testJWK(t)
	parsed, err := ParseDPoPKey(raw)
	if err != nil {
		t.Fatalf("ParseDPoPKey: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	proof, err := parsed.ResourceProof("POST", "https://pds.example/xrpc/com.atproto.repo.createRecord", "tok-123", "nonce-9", now)
	if err != nil {
		t.Fatalf("ResourceProof: %v", err)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(proof, claims, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("parse proof: %v", err)
	}

	if typ := token.Header["typ"]; typ != "dpop+jwt" {
		t.Fatalf("typ = %v, want dpop+jwt", typ)
	}
	if _, ok := token.Header["jwk"].(map[string]any); !ok {
		t.Fatal("proof header missing embedded jwk")
	}
	if claims["htm"] != "POST" {
		t.Fatalf("htm = %v", claims["htm"])
	}
	if claims["htu"] != "https://pds.example/xrpc/com.atproto.repo.createRecord" {
		t.Fatalf("htu = %v", claims["htu"])
	}
	if claims["nonce"] != "nonce-9" {
		t.Fatalf("nonce = %v", claims["nonce"])
	}

	sum := sha256.Sum256([]byte("tok-123"))
	if want := base64.RawURLEncoding.EncodeToString(sum[:]); claims["ath"] != want {
		t.Fatalf("ath = %v, want %v", claims["ath"], want)
	}
}

func TestAuthserverProofOmitsTokenHash(t *testing.T) {
	raw, key := testJWK(t)
	parsed, err := ParseDPoPKey(raw)
	if err != nil {
		t.Fatalf("ParseDPoPKey: %v", err)
	}

	proof, err := parsed.AuthserverProof("POST", "https://auth.example/token", "", time.Now())
	if err != nil {
		t.Fatalf("AuthserverProof: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(proof, claims, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"})); err != nil {
		t.Fatalf("parse proof: %v", err)
	}
	if _, ok := claims["ath"]; ok {
		t.Fatal("authserver proof must not carry an ath claim")
	}
	if _, ok := claims["nonce"]; ok {
		t.Fatal("empty nonce must not be emitted")
	}
}

func TestClientAssertion(t *testing.T) {
	raw, key := testJWK(t)
	parsed, err := ParseDPoPKey(raw)
	if err != nil {
		t.Fatalf("ParseDPoPKey: %v", err)
	}

	assertion, err := ClientAssertion("https://app.example/client-metadata.json", "https://auth.example", parsed, time.Now())
	if err != nil {
		t.Fatalf("ClientAssertion: %v", err)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(assertion, claims, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithAudience("https://auth.example"))
	if err != nil {
		t.Fatalf("parse assertion: %v", err)
	}
	if claims["iss"] != "https://app.example/client-metadata.json" || claims["sub"] != claims["iss"] {
		t.Fatalf("iss/sub mismatch: iss=%v sub=%v", claims["iss"], claims["sub"])
	}
	if token.Header["kid"] != "test-key-1" {
		t.Fatalf("kid = %v", token.Header["kid"])
	}
}
