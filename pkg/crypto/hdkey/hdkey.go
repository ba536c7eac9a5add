// Package hdkey derives BIP-32 keys from a codex32 master secret. The master
// key fingerprint supplies the default share identifier.
package hdkey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // BIP-32 fingerprints are defined over HASH160

	"github.com/Davincible/codex32/pkg/crypto/codex32"
)

const (
	HardenedKeyOffset = uint32(0x80000000)

	PurposeBIP44 = uint32(44)
	PurposeBIP84 = uint32(84)

	CoinTypeBitcoin = uint32(0)
)

// HDKey is a BIP-32 extended key and the path it was derived along
type HDKey struct {
	key  *bip32.Key
	path string
}

// NewMasterKey creates the BIP-32 master key for a 16 to 64 byte seed
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) < codex32.MinSecretLength || len(seed) > codex32.MaxSecretLength {
		return nil, fmt.Errorf("%w: seed has %d bytes", codex32.ErrInvalidSecretLength, len(seed))
	}

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	return &HDKey{
		key:  masterKey,
		path: "m",
	}, nil
}

// FromExtendedKey deserializes an xprv or xpub
func FromExtendedKey(xkey string) (*HDKey, error) {
	key, err := bip32.B58Deserialize(xkey)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize extended key: %w", err)
	}

	return &HDKey{key: key}, nil
}

// DerivePath walks a path such as m/84'/0'/0' from this key
func (h *HDKey) DerivePath(path string) (*HDKey, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	current := h.key
	for _, index := range indices {
		child, err := current.NewChildKey(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key at index %d: %w", index, err)
		}
		current = child
	}

	return &HDKey{
		key:  current,
		path: strings.TrimSpace(path),
	}, nil
}

// DeriveAccount derives m/purpose'/coin'/account'
func (h *HDKey) DeriveAccount(purpose, coinType, account uint32) (*HDKey, error) {
	return h.DerivePath(fmt.Sprintf("m/%d'/%d'/%d'", purpose, coinType, account))
}

// ParsePath converts a textual derivation path into child indices.
// Hardened segments are marked with ' or h.
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "m" || path == "M" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "m/") && !strings.HasPrefix(path, "M/") {
		return nil, fmt.Errorf("path must start with 'm/' or 'M/'")
	}

	segments := strings.Split(path, "/")[1:]
	indices := make([]uint32, 0, len(segments))

	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("empty path segment in %q", path)
		}

		hardened := strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h")
		if hardened {
			segment = segment[:len(segment)-1]
		}

		value, err := strconv.ParseUint(segment, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment '%s': %w", segment, err)
		}
		if value >= uint64(HardenedKeyOffset) {
			return nil, fmt.Errorf("path segment %d out of range", value)
		}

		index := uint32(value)
		if hardened {
			index += HardenedKeyOffset
		}
		indices = append(indices, index)
	}

	return indices, nil
}

// Fingerprint returns the first four bytes of HASH160 of this key's public key
func (h *HDKey) Fingerprint() [4]byte {
	sum := sha256.Sum256(h.PublicKey())

	hasher := ripemd160.New()
	hasher.Write(sum[:])
	hash := hasher.Sum(nil)

	var fp [4]byte
	copy(fp[:], hash[:4])
	return fp
}

// FingerprintHex returns the fingerprint as eight hex digits
func (h *HDKey) FingerprintHex() string {
	fp := h.Fingerprint()
	return hex.EncodeToString(fp[:])
}

func (h *HDKey) PublicKey() []byte {
	return h.key.PublicKey().Key
}

func (h *HDKey) PublicKeyHex() string {
	return hex.EncodeToString(h.PublicKey())
}

func (h *HDKey) ExtendedPublicKey() string {
	return h.key.PublicKey().String()
}

func (h *HDKey) ExtendedPrivateKey() string {
	return h.key.String()
}

func (h *HDKey) Path() string {
	return h.path
}

func (h *HDKey) IsPrivate() bool {
	return h.key.IsPrivate
}

// IdentifierFromFingerprint encodes the top 20 bits of a fingerprint as
// four bech32 characters
func IdentifierFromFingerprint(fp [4]byte) string {
	bits := binary.BigEndian.Uint32(fp[:]) >> 12

	id := make([]byte, 4)
	for i := range id {
		id[i] = codex32.Charset[(bits>>(15-5*uint(i)))&31]
	}
	return string(id)
}

// DefaultIdentifier derives the share identifier for a master secret from
// its BIP-32 master key fingerprint
func DefaultIdentifier(seed []byte) (string, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return "", err
	}
	return IdentifierFromFingerprint(master.Fingerprint()), nil
}
