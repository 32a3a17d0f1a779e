package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/questx-lab/prizeengine/pkg/crypto"
	"golang.org/x/crypto/blake2b"
)

// Signature versions. A version selects both the key of the keyring and the
// hash algorithm.
const (
	VersionHMACSHA256 = 1
	VersionBLAKE2b    = 2
)

type Signer interface {
	// Sign signs the token with the current version and returns the
	// signature with its version.
	Sign(tokenID, prizeID string, expiresAt time.Time) (string, int, error)
	SignWithVersion(tokenID, prizeID string, expiresAt time.Time, version int) (string, error)
	Verify(tokenID, prizeID string, expiresAt time.Time, version int, signature string) bool
}

type signer struct {
	current int
	keys    map[int][]byte
}

func New(current int, keys map[int]string) (*signer, error) {
	if _, ok := keys[current]; !ok {
		return nil, fmt.Errorf("no key for signature version %d", current)
	}

	s := &signer{current: current, keys: make(map[int][]byte, len(keys))}
	for version, key := range keys {
		if key == "" {
			return nil, fmt.Errorf("empty key for signature version %d", version)
		}

		s.keys[version] = []byte(key)
	}

	return s, nil
}

// canonical joins the signed fields. Expiry is encoded as UTC unix seconds so
// the signature does not depend on the timezone or the sub-second precision
// of the store.
func canonical(tokenID, prizeID string, expiresAt time.Time, version int) []byte {
	return []byte(strings.Join([]string{
		tokenID,
		prizeID,
		strconv.FormatInt(expiresAt.UTC().Unix(), 10),
		strconv.Itoa(version),
	}, "|"))
}

func (s *signer) Sign(tokenID, prizeID string, expiresAt time.Time) (string, int, error) {
	signature, err := s.SignWithVersion(tokenID, prizeID, expiresAt, s.current)
	if err != nil {
		return "", 0, err
	}

	return signature, s.current, nil
}

func (s *signer) SignWithVersion(tokenID, prizeID string, expiresAt time.Time, version int) (string, error) {
	key, ok := s.keys[version]
	if !ok {
		return "", fmt.Errorf("unknown signature version %d", version)
	}

	data := canonical(tokenID, prizeID, expiresAt, version)
	switch version {
	case VersionHMACSHA256:
		return crypto.HMAC(sha256.New, data, key), nil

	case VersionBLAKE2b:
		h, err := blake2b.New256(key)
		if err != nil {
			return "", err
		}

		h.Write(data)
		return hex.EncodeToString(h.Sum(nil)), nil

	default:
		return "", fmt.Errorf("unsupported signature version %d", version)
	}
}

func (s *signer) Verify(tokenID, prizeID string, expiresAt time.Time, version int, signature string) bool {
	expected, err := s.SignWithVersion(tokenID, prizeID, expiresAt, version)
	if err != nil {
		return false
	}

	return hmac.Equal([]byte(expected), []byte(signature))
}
