package auth

// Package auth hashes and verifies account passwords with argon2id encoded
// in PHC string format. Legacy stores kept passwords in the clear; callers
// detect those with IsHashed and upgrade on successful login.

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	defaultMemoryKiB  uint32 = 64 * 1024
	defaultIterations uint32 = 3
	defaultSaltLen           = 16
	defaultKeyLen     uint32 = 32

	minMemoryKiB uint32 = 8 * 1024
)

var (
	ErrInvalidParams = errors.New("auth: invalid argon2 parameters")
	ErrMalformedHash = errors.New("auth: malformed password hash")
)

type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

func DefaultParams() Params {
	parallelism := runtime.NumCPU()
	if parallelism > 4 {
		parallelism = 4
	}
	if parallelism < 1 {
		parallelism = 1
	}

	return Params{
		Memory:      defaultMemoryKiB,
		Iterations:  defaultIterations,
		Parallelism: uint8(parallelism),
		SaltLen:     defaultSaltLen,
		KeyLen:      defaultKeyLen,
	}
}

func (p Params) Validate() error {
	switch {
	case p.Memory < minMemoryKiB:
		return fmt.Errorf("%w: memory must be >= %d KiB", ErrInvalidParams, minMemoryKiB)
	case p.Iterations == 0:
		return fmt.Errorf("%w: iterations must be > 0", ErrInvalidParams)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: parallelism must be > 0", ErrInvalidParams)
	case p.SaltLen < 8:
		return fmt.Errorf("%w: salt length must be >= 8", ErrInvalidParams)
	case p.KeyLen == 0:
		return fmt.Errorf("%w: key length must be > 0", ErrInvalidParams)
	default:
		return nil
	}
}

// HashPassword derives an argon2id digest of password and returns it in PHC
// string format: $argon2id$v=19$m=...,t=...,p=...$<salt>$<digest>.
func HashPassword(password []byte, params Params) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if len(password) == 0 {
		return "", fmt.Errorf("%w: password must not be empty", ErrInvalidParams)
	}

	salt := make([]byte, params.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory,
		params.Iterations,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword reports whether password matches the encoded argon2id hash.
func VerifyPassword(encoded string, password []byte) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	params.KeyLen = uint32(len(key))
	candidate := argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLen)
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

// IsHashed reports whether stored looks like an encoded argon2id hash rather
// than a legacy plaintext password.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$argon2id$")
}

// LegacyEqual compares a legacy plaintext stored password in constant time.
func LegacyEqual(stored string, password []byte) bool {
	return subtle.ConstantTimeCompare([]byte(stored), password) == 1
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: decode salt: %v", ErrMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: decode digest: %v", ErrMalformedHash, err)
	}
	params.SaltLen = len(salt)

	return params, salt, key, nil
}
