// Package auth maps station access codes to roles.
//
// Codes are stored as argon2id hashes in the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash). Codes are compared after
// trimming and lower-casing, so "Chef " and "chef" are the same code.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// Params tunes argon2id.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the OWASP minimum for argon2id (19 MiB, 2 passes).
//
//nolint:gochecknoglobals // Read-only parameter set.
var DefaultParams = Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

var (
	// ErrInvalidCode is returned when no role matches the access code.
	ErrInvalidCode = fmt.Errorf("%w: invalid access code", crew.ErrForbidden)
	// ErrInvalidHash is returned for hashes not in the argon2id PHC format.
	ErrInvalidHash = errors.New("invalid access code hash")
	// ErrIncompatibleVersion is returned for hashes made by another argon2 version.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// NormalizeCode trims and lower-cases an access code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// HashCode hashes a normalized access code.
func HashCode(code string, params Params) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(NormalizeCode(code)), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory,
		params.Iterations,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// hashedCode is a decoded PHC string.
type hashedCode struct {
	params Params
	salt   []byte
	key    []byte
}

// parseHash decodes a PHC string.
func parseHash(encoded string) (*hashedCode, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}

	if version != argon2.Version {
		return nil, ErrIncompatibleVersion
	}

	var h hashedCode

	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}

	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}

	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}

	if len(h.key) == 0 {
		return nil, ErrInvalidHash
	}

	//nolint:gosec // Key length comes from a decoded hash, far below uint32 range.
	h.params.KeyLength = uint32(len(h.key))

	return &h, nil
}

// matches reports whether code hashes to h.
func (h *hashedCode) matches(code string) bool {
	candidate := argon2.IDKey([]byte(code), h.salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return subtle.ConstantTimeCompare(candidate, h.key) == 1
}

// roleCode binds a role to its hashed code.
type roleCode struct {
	role crew.Role
	hash *hashedCode
}

// Authenticator checks access codes.
type Authenticator struct {
	codes []roleCode
}

// New creates an authenticator from PHC hashes. The supervisor code is tried first.
func New(supervisorHash, crewMemberHash string) (*Authenticator, error) {
	a := new(Authenticator)

	for _, entry := range []struct {
		role crew.Role
		hash string
	}{
		{crew.RoleSupervisor, supervisorHash},
		{crew.RoleCrewMember, crewMemberHash},
	} {
		parsed, err := parseHash(entry.hash)
		if err != nil {
			return nil, fmt.Errorf("%s code: %w", entry.role, err)
		}

		a.codes = append(a.codes, roleCode{role: entry.role, hash: parsed})
	}

	return a, nil
}

// Login returns the role unlocked by the code.
func (a *Authenticator) Login(code string) (crew.Role, error) {
	code = NormalizeCode(code)
	if code == "" {
		return "", fmt.Errorf("%w: access code is required", crew.ErrInvalidInput)
	}

	for _, c := range a.codes {
		if c.hash.matches(code) {
			return c.role, nil
		}
	}

	return "", ErrInvalidCode
}
