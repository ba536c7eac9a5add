package codex32

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// HRP is the human-readable prefix of every share string
	HRP = "ms"

	// secretX is the field coordinate reserved for the master secret
	secretX = 16

	// identifierLength is the number of identifier characters
	identifierLength = 4

	// MaxThreshold is the largest supported k
	MaxThreshold = 9
)

// Index is the x-coordinate of a share: either the secret itself or a
// numbered share in [0,31] other than 16. The zero value is numbered share 0.
type Index struct {
	x      byte
	secret bool
}

// SecretIndex identifies the share that is the master secret
var SecretIndex = Index{x: secretX, secret: true}

// ShareIndex returns the numbered index n
func ShareIndex(n int) (Index, error) {
	if n < 0 || n > 31 || n == secretX {
		return Index{}, fmt.Errorf("%w: got %d", ErrInvalidIndex, n)
	}
	return Index{x: byte(n)}, nil
}

// IndexFromX maps a field coordinate to an index; 16 maps to SecretIndex
func IndexFromX(x byte) (Index, error) {
	if x == secretX {
		return SecretIndex, nil
	}
	return ShareIndex(int(x))
}

// X returns the field coordinate of the index
func (i Index) X() byte { return i.x }

// IsSecret reports whether the index is the secret sentinel
func (i Index) IsSecret() bool { return i.secret }

// String returns "s" for the secret or the index's charset character
func (i Index) String() string {
	if i.secret {
		return "s"
	}
	return string(Charset[i.x])
}

// Share is one validated, immutable secret share
type Share struct {
	spec       ChecksumSpec
	threshold  int
	identifier string
	index      Index
	data       []byte
}

// NewShare validates and builds a share. data holds payload symbols
// followed by the checksum symbols of spec.
func NewShare(spec ChecksumSpec, k int, identifier string, index Index, data []byte) (*Share, error) {
	if k != 0 && (k < 2 || k > MaxThreshold) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidThreshold, k)
	}

	if k == 0 && !index.IsSecret() {
		return nil, fmt.Errorf("%w: share index must be 's' when k = 0, got %s", ErrInvalidThreshold, index)
	}

	if len(identifier) != identifierLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidIdentifierLength, len(identifier))
	}

	if _, err := Decode(identifier); err != nil {
		return nil, fmt.Errorf("invalid identifier %q: %w", identifier, err)
	}

	for i, s := range data {
		if s > 31 {
			return nil, fmt.Errorf("%w: %d at position %d", ErrInvalidSymbol, s, i)
		}
	}

	if len(data) < spec.length || !VerifyChecksum(spec, data) {
		return nil, fmt.Errorf("%w: %s share %s", ErrChecksumMismatch, spec.name, index)
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	return &Share{
		spec:       spec,
		threshold:  k,
		identifier: identifier,
		index:      index,
		data:       stored,
	}, nil
}

// NewShareFromBytes converts payload bytes to symbols, appends the checksum
// and builds the share
func NewShareFromBytes(spec ChecksumSpec, k int, identifier string, index Index, payload []byte) (*Share, error) {
	symbols, err := ConvertBits(payload, 8, 5, true)
	if err != nil {
		return nil, err
	}

	data := append(symbols, CreateChecksum(spec, symbols)...)
	return NewShare(spec, k, identifier, index, data)
}

// ParseShare parses the string form of an MS32 share
func ParseShare(s string) (*Share, error) {
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	if s != lower && s != strings.ToUpper(s) {
		return nil, ErrMixedCase
	}
	s = lower

	prefix := HRP + "1"
	if !strings.HasPrefix(s, prefix) {
		return nil, ErrInvalidPrefix
	}

	rest := s[len(prefix):]
	if len(rest) < 1+identifierLength+1+MS32.length {
		return nil, fmt.Errorf("%w: %d characters", ErrInvalidLength, len(s))
	}

	if rest[0] < '0' || rest[0] > '9' {
		return nil, fmt.Errorf("%w: threshold character %q", ErrInvalidThreshold, rest[0])
	}
	k := int(rest[0] - '0')

	identifier := rest[1 : 1+identifierLength]

	indexSymbol, err := Decode(rest[1+identifierLength : 2+identifierLength])
	if err != nil {
		return nil, fmt.Errorf("invalid share index: %w", err)
	}
	index, err := IndexFromX(indexSymbol[0])
	if err != nil {
		return nil, err
	}

	data, err := Decode(rest[2+identifierLength:])
	if err != nil {
		return nil, fmt.Errorf("invalid share data: %w", err)
	}

	return NewShare(MS32, k, identifier, index, data)
}

// Threshold returns k
func (s *Share) Threshold() int { return s.threshold }

// Identifier returns the four-character identifier
func (s *Share) Identifier() string { return s.identifier }

// Index returns the share index
func (s *Share) Index() Index { return s.index }

// Spec returns the checksum specification the share verifies under
func (s *Share) Spec() ChecksumSpec { return s.spec }

// Data returns a copy of the payload and checksum symbols
func (s *Share) Data() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// Payload returns a copy of the payload symbols without the checksum
func (s *Share) Payload() []byte {
	n := len(s.data) - s.spec.length
	out := make([]byte, n)
	copy(out, s.data[:n])
	return out
}

// Secret returns the payload as bytes. The trailing padding bits must be
// zero. Only the secret share carries the master secret.
func (s *Share) Secret() ([]byte, error) {
	if !s.index.IsSecret() {
		return nil, fmt.Errorf("%w: index %s", ErrNotSecretShare, s.index)
	}

	secret, err := ConvertBits(s.Payload(), 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("secret share padding: %w", err)
	}

	return secret, nil
}

// String returns the canonical text form: "ms1" + k + identifier + index + data
func (s *Share) String() string {
	var b strings.Builder
	b.Grow(len(HRP) + 1 + 1 + identifierLength + 1 + len(s.data))

	b.WriteString(HRP)
	b.WriteByte('1')
	b.WriteString(strconv.Itoa(s.threshold))
	b.WriteString(s.identifier)
	b.WriteString(s.index.String())
	for _, d := range s.data {
		b.WriteByte(Charset[d])
	}

	return b.String()
}

// ShareInfo contains human-readable information about a share
type ShareInfo struct {
	Threshold      int    `json:"threshold"`
	Identifier     string `json:"identifier"`
	Index          string `json:"index"`
	Checksum       string `json:"checksum"`
	PayloadSymbols int    `json:"payload_symbols"`
	SecretBytes    int    `json:"secret_bytes"`
}

// Info summarises the share
func (s *Share) Info() ShareInfo {
	payload := len(s.data) - s.spec.length
	return ShareInfo{
		Threshold:      s.threshold,
		Identifier:     s.identifier,
		Index:          s.index.String(),
		Checksum:       s.spec.name,
		PayloadSymbols: payload,
		SecretBytes:    payload * 5 / 8,
	}
}

// String returns a human-readable representation of share info
func (si ShareInfo) String() string {
	threshold := strconv.Itoa(si.Threshold)
	if si.Threshold == 0 {
		threshold = "none (unshared secret)"
	}
	return fmt.Sprintf(
		"Identifier: %s\n"+
			"Threshold: %s\n"+
			"Index: %s\n"+
			"Checksum: %s\n"+
			"Payload: %d symbols (%d bytes)",
		si.Identifier,
		threshold,
		si.Index,
		si.Checksum,
		si.PayloadSymbols, si.SecretBytes,
	)
}
