package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords one-way with a random salt and verifies
// candidates against stored hashes.
type PasswordHasher interface {
	// Hash returns a self-describing salted hash; two calls with the same
	// input return different strings.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. Malformed hashes simply
	// do not match.
	Verify(password, hash string) bool
}

// Supported password hash algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// NewPasswordHasher returns the hasher for algorithm. cost is the bcrypt cost
// for bcrypt and the time parameter for argon2id; 0 picks the default.
func NewPasswordHasher(algorithm string, cost int) (PasswordHasher, error) {
	if cost < 0 {
		return nil, fmt.Errorf("password hash cost %d is negative", cost)
	}
	switch algorithm {
	case AlgorithmBcrypt, "":
		return NewBcryptHasher(cost)
	case AlgorithmArgon2id:
		if cost > int(argon2MaxTime) {
			return nil, fmt.Errorf("argon2id time cost %d out of range [1, %d]", cost, argon2MaxTime)
		}
		return NewArgon2Hasher(uint32(cost))
	default:
		return nil, fmt.Errorf("unknown password hash algorithm %q", algorithm)
	}
}

// BcryptHasher hashes with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher validates cost against bcrypt's bounds.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify relies on bcrypt's constant-time comparison.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const (
	argon2Memory  uint32 = 64 * 1024
	argon2Threads uint8  = 2
	argon2KeyLen  uint32 = 32
	argon2SaltLen        = 16
	argon2Time    uint32 = 3

	// argon2MaxMemory and argon2MaxTime bound the parameters accepted from
	// configuration and from stored hashes.
	argon2MaxMemory uint32 = 1 << 20
	argon2MaxTime   uint32 = 64
)

var errInvalidHash = errors.New("invalid password hash")

// Argon2Hasher hashes with argon2id and stores the result in PHC form:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
type Argon2Hasher struct {
	time uint32
}

// NewArgon2Hasher validates the time parameter; 0 picks the default.
func NewArgon2Hasher(timeCost uint32) (*Argon2Hasher, error) {
	if timeCost == 0 {
		timeCost = argon2Time
	}
	if timeCost > argon2MaxTime {
		return nil, fmt.Errorf("argon2id time cost %d out of range [1, %d]", timeCost, argon2MaxTime)
	}
	return &Argon2Hasher{time: timeCost}, nil
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, h.time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		h.time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify recomputes the key with the parameters embedded in hash, so hashes
// made with another time cost still verify.
func (h *Argon2Hasher) Verify(password, hash string) bool {
	p, err := parseArgon2Hash(hash)
	if err != nil {
		return false
	}
	actual := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(actual, p.key) == 1
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2Hash(hash string) (*argon2Params, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != AlgorithmArgon2id {
		return nil, errInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, errInvalidHash
	}

	p := &argon2Params{}
	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return nil, errInvalidHash
	}
	var err error
	if p.memory, err = parseUint32Param(params[0], "m="); err != nil {
		return nil, err
	}
	if p.time, err = parseUint32Param(params[1], "t="); err != nil {
		return nil, err
	}
	threads, err := parseUint32Param(params[2], "p=")
	if err != nil || threads == 0 || threads > 255 {
		return nil, errInvalidHash
	}
	p.threads = uint8(threads)

	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errInvalidHash
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, errInvalidHash
	}
	if p.memory == 0 || p.memory > argon2MaxMemory || p.time == 0 || p.time > argon2MaxTime {
		return nil, errInvalidHash
	}
	return p, nil
}

func parseUint32Param(value, prefix string) (uint32, error) {
	if !strings.HasPrefix(value, prefix) {
		return 0, errInvalidHash
	}
	parsed, err := strconv.ParseUint(strings.TrimPrefix(value, prefix), 10, 32)
	if err != nil {
		return 0, errInvalidHash
	}
	return uint32(parsed), nil
}
