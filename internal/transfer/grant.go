package transfer

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/galley/internal/platform/id"
)

var (
	// ErrGrantInvalid indicates a grant that is malformed or missing claims.
	ErrGrantInvalid = errors.New("transfer grant is invalid")
	// ErrGrantExpired indicates a grant past its expiry.
	ErrGrantExpired = errors.New("transfer grant is expired")
	// ErrGrantMismatch indicates a grant whose claims do not match the export.
	ErrGrantMismatch = errors.New("transfer grant mismatch")
)

// grantEnv holds raw env values before post-parse validation.
type grantEnv struct {
	Issuer     string        `env:"GALLEY_TRANSFER_GRANT_ISSUER"`
	Audience   string        `env:"GALLEY_TRANSFER_GRANT_AUDIENCE"`
	PublicKey  string        `env:"GALLEY_TRANSFER_GRANT_PUBLIC_KEY"`
	PrivateKey string        `env:"GALLEY_TRANSFER_GRANT_PRIVATE_KEY"`
	TTL        time.Duration `env:"GALLEY_TRANSFER_GRANT_TTL"         envDefault:"1h"`
}

// SignerConfig defines how transfer grants are minted.
type SignerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// VerifierConfig defines how transfer grants are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// GrantClaims captures validated transfer grant claims.
type GrantClaims struct {
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	JWTID     string
	KitchenID string
	LastSeq   uint64
}

// grantClaims is the internal claims type used for JWT signing and parsing.
type grantClaims struct {
	jwt.RegisteredClaims
	KitchenID string `json:"kitchen_id"`
	LastSeq   uint64 `json:"last_seq"`
}

// LoadSignerConfigFromEnv reads grant minting configuration.
func LoadSignerConfigFromEnv(now func() time.Time) (SignerConfig, error) {
	var raw grantEnv
	if err := env.Parse(&raw); err != nil {
		return SignerConfig{}, fmt.Errorf("parse transfer grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return SignerConfig{}, fmt.Errorf("GALLEY_TRANSFER_GRANT_ISSUER is required")
	}
	if audience == "" {
		return SignerConfig{}, fmt.Errorf("GALLEY_TRANSFER_GRANT_AUDIENCE is required")
	}
	if privateKey == "" {
		return SignerConfig{}, fmt.Errorf("GALLEY_TRANSFER_GRANT_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return SignerConfig{}, fmt.Errorf("decode transfer grant private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return SignerConfig{}, fmt.Errorf("transfer grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if raw.TTL <= 0 {
		return SignerConfig{}, fmt.Errorf("transfer grant ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return SignerConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      raw.TTL,
		Now:      now,
	}, nil
}

// LoadVerifierConfigFromEnv reads grant verification configuration.
func LoadVerifierConfigFromEnv(now func() time.Time) (VerifierConfig, error) {
	var raw grantEnv
	if err := env.Parse(&raw); err != nil {
		return VerifierConfig{}, fmt.Errorf("parse transfer grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return VerifierConfig{}, fmt.Errorf("GALLEY_TRANSFER_GRANT_ISSUER is required")
	}
	if audience == "" {
		return VerifierConfig{}, fmt.Errorf("GALLEY_TRANSFER_GRANT_AUDIENCE is required")
	}
	if publicKey == "" {
		return VerifierConfig{}, fmt.Errorf("GALLEY_TRANSFER_GRANT_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return VerifierConfig{}, fmt.Errorf("decode transfer grant public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return VerifierConfig{}, fmt.Errorf("transfer grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return VerifierConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// MintGrant signs a transfer grant binding a kitchen journal prefix.
func MintGrant(cfg SignerConfig, kitchenID string, lastSeq uint64) (string, error) {
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PrivateKeySize {
		return "", errors.New("transfer grant signer is not configured")
	}
	if strings.TrimSpace(kitchenID) == "" {
		return "", fmt.Errorf("%w: kitchen id is required", ErrGrantInvalid)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	jwtID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("new grant id: %w", err)
	}

	now := cfg.Now().UTC()
	claims := grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jwtID,
		},
		KitchenID: kitchenID,
		LastSeq:   lastSeq,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign transfer grant: %w", err)
	}
	return signed, nil
}

// ValidateGrant verifies a transfer grant token and validates its claims
// against the exported kitchen id and last sequence.
func ValidateGrant(grant, kitchenID string, lastSeq uint64, cfg VerifierConfig) (GrantClaims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return GrantClaims{}, fmt.Errorf("%w: grant is required", ErrGrantInvalid)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return GrantClaims{}, errors.New("transfer grant verifier is not configured")
	}

	var parsed grantClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return GrantClaims{}, ErrGrantExpired
		}
		return GrantClaims{}, fmt.Errorf("%w: %v", ErrGrantInvalid, err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return GrantClaims{}, fmt.Errorf("%w: issuer", ErrGrantMismatch)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return GrantClaims{}, fmt.Errorf("%w: audience", ErrGrantMismatch)
	}
	if parsed.ID == "" {
		return GrantClaims{}, fmt.Errorf("%w: jti is required", ErrGrantInvalid)
	}
	if parsed.ExpiresAt == nil {
		return GrantClaims{}, fmt.Errorf("%w: exp is required", ErrGrantInvalid)
	}

	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return GrantClaims{}, ErrGrantExpired
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return GrantClaims{}, fmt.Errorf("%w: not active yet", ErrGrantInvalid)
	}

	if strings.TrimSpace(parsed.KitchenID) == "" || parsed.KitchenID != kitchenID {
		return GrantClaims{}, fmt.Errorf("%w: kitchen id", ErrGrantMismatch)
	}
	if parsed.LastSeq != lastSeq {
		return GrantClaims{}, fmt.Errorf("%w: last seq", ErrGrantMismatch)
	}

	claims := GrantClaims{
		Issuer:    parsed.Issuer,
		Audience:  parsed.Audience,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
		JWTID:     parsed.ID,
		KitchenID: parsed.KitchenID,
		LastSeq:   parsed.LastSeq,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

func audienceContains(audience jwt.ClaimStrings, expected string) bool {
	for _, candidate := range audience {
		if candidate == expected {
			return true
		}
	}
	return false
}

// decodeBase64 accepts both raw and padded std encoding for key material.
func decodeBase64(value string) ([]byte, error) {
	if decoded, err := base64.RawStdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
