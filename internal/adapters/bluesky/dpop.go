package bluesky

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DPoPKey is an ES256 signing key loaded from the stored private JWK. The
// public JWK representation is precomputed because every proof embeds it.
type DPoPKey struct {
	privateKey *ecdsa.PrivateKey
	publicJWK  map[string]any
	keyID      string
}

type jwkFields struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d"`
	Kid string `json:"kid"`
}

// ParseDPoPKey loads an EC P-256 private JWK from its stored JSON form.
func ParseDPoPKey(rawJWK string) (*DPoPKey, error) {
	var f jwkFields
	if err := json.Unmarshal([]byte(rawJWK), &f); err != nil {
		return nil, fmt.Errorf("parse dpop jwk: %w", err)
	}
	if f.Kty != "EC" || f.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported dpop key type %s/%s", f.Kty, f.Crv)
	}
	if f.X == "" || f.Y == "" || f.D == "" {
		return nil, errors.New("dpop jwk missing coordinates")
	}

	x, err := base64.RawURLEncoding.DecodeString(f.X)
	if err != nil {
		return nil, fmt.Errorf("decode jwk x: %w", err)
	}
	y, err := base64.RawURLEncoding.DecodeString(f.Y)
	if err != nil {
		return nil, fmt.Errorf("decode jwk y: %w", err)
	}
	d, err := base64.RawURLEncoding.DecodeString(f.D)
	if err != nil {
		return nil, fmt.Errorf("decode jwk d: %w", err)
	}

	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		},
		D: new(big.Int).SetBytes(d),
	}
	if !key.Curve.IsOnCurve(key.X, key.Y) {
		return nil, errors.New("dpop jwk public point not on curve")
	}

	return &DPoPKey{
		privateKey: key,
		publicJWK: map[string]any{
			"kty": "EC",
			"crv": "P-256",
			"x":   f.X,
			"y":   f.Y,
		},
		keyID: f.Kid,
	}, nil
}

// PublicKey exposes the verification key, used by tests and metadata surfaces.
func (k *DPoPKey) PublicKey() *ecdsa.PublicKey {
	return &k.privateKey.PublicKey
}

// KeyID returns the JWK kid, when present.
func (k *DPoPKey) KeyID() string {
	return k.keyID
}

// ResourceProof builds the DPoP proof for a resource-server (PDS) request,
// binding method, URL, the access token hash and the last server nonce.
func (k *DPoPKey) ResourceProof(method, url, accessToken, nonce string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"jti": uuid.NewString(),
		"htm": method,
		"htu": url,
		"iat": now.Unix(),
		"exp": now.Add(30 * time.Second).Unix(),
		"ath": hashS256(accessToken),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	return k.sign(claims)
}

// AuthserverProof builds the DPoP proof for an authorization-server request.
// No "ath" claim: there is no bound access token on the token endpoint.
func (k *DPoPKey) AuthserverProof(method, url, nonce string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"jti": uuid.NewString(),
		"htm": method,
		"htu": url,
		"iat": now.Unix(),
		"exp": now.Add(30 * time.Second).Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	return k.sign(claims)
}

func (k *DPoPKey) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["typ"] = "dpop+jwt"
	token.Header["jwk"] = k.publicJWK
	signed, err := token.SignedString(k.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign dpop proof: %w", err)
	}
	return signed, nil
}

// ClientAssertion is the self-signed confidential-client JWT presented on the
// token endpoint, signed with the key declared in the client metadata JWKS.
func ClientAssertion(clientID, audience string, key *DPoPKey, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": clientID,
		"sub": clientID,
		"aud": audience,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
	})
	if key.keyID != "" {
		token.Header["kid"] = key.keyID
	}
	signed, err := token.SignedString(key.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign client assertion: %w", err)
	}
	return signed, nil
}

func hashS256(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
