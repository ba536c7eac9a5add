package codex32

import (
	"fmt"
	"strings"

	"lukechampine.com/uint128"
)

// BCH checksums over GF(32) symbols, generalised from the bech32 polymod.
// Residues are kept in 128 bits because the MS32 code uses 65-bit generators.

// ChecksumSpec describes one checksum variant. Values are immutable;
// use the package-level Bech32, Bech32m and MS32 specifications.
type ChecksumSpec struct {
	name       string
	length     int
	generators [5]uint128.Uint128
	constant   uint128.Uint128
	residue    uint128.Uint128
}

var bech32Generators = [5]uint128.Uint128{
	uint128.From64(0x3b6a57b2),
	uint128.From64(0x26508e6d),
	uint128.From64(0x1ea119fa),
	uint128.From64(0x3d4233dd),
	uint128.From64(0x2a1462b3),
}

var (
	// Bech32 is the BIP-173 checksum
	Bech32 = ChecksumSpec{
		name:       "bech32",
		length:     6,
		generators: bech32Generators,
		constant:   uint128.From64(1),
		residue:    uint128.From64(1),
	}

	// Bech32m is the BIP-350 checksum
	Bech32m = ChecksumSpec{
		name:       "bech32m",
		length:     6,
		generators: bech32Generators,
		constant:   uint128.From64(0x2bc830a3),
		residue:    uint128.From64(1),
	}

	// MS32 is the 13-symbol checksum protecting secret shares
	MS32 = ChecksumSpec{
		name:   "ms32",
		length: 13,
		generators: [5]uint128.Uint128{
			uint128.New(0xf28f80fffe92f842, 0x1), // 0x1f28f80fffe92f842
			uint128.New(0x751a20bdef255484, 0x1), // 0x1751a20bdef255484
			uint128.New(0x7a316039ceda0d08, 0x0), // 0x07a316039ceda0d08
			uint128.New(0xe0e2c0739da09a10, 0x0), // 0x0e0e2c0739da09a10
			uint128.New(0xc164a0e739d13129, 0x1), // 0x1c164a0e739d13129
		},
		constant: uint128.New(0x0ce0795c2fd1e62a, 0x1), // 0x10ce0795c2fd1e62a
		residue:  uint128.From64(0x23181b3),
	}
)

// Name returns the variant name
func (c ChecksumSpec) Name() string { return c.name }

// Length returns the number of checksum symbols
func (c ChecksumSpec) Length() int { return c.length }

// Constant returns the residue a valid checksummed sequence reduces to
func (c ChecksumSpec) Constant() uint128.Uint128 { return c.constant }

// InitialResidue returns the polymod seed
func (c ChecksumSpec) InitialResidue() uint128.Uint128 { return c.residue }

// SpecByName looks up a checksum specification by name
func SpecByName(name string) (ChecksumSpec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bech32":
		return Bech32, nil
	case "bech32m":
		return Bech32m, nil
	case "ms32", "codex32":
		return MS32, nil
	default:
		return ChecksumSpec{}, fmt.Errorf("%w: %q", ErrUnknownChecksum, name)
	}
}

// Polymod computes the checksum residue of a sequence of 5-bit values
func Polymod(spec ChecksumSpec, values []byte) uint128.Uint128 {
	bitLength := uint(5 * (spec.length - 1))
	mask := uint128.Max.Rsh(128 - bitLength)

	chk := spec.residue
	for _, v := range values {
		top := chk.Rsh(bitLength).Lo
		chk = chk.And(mask).Lsh(5).Xor64(uint64(v))

		for i := 0; i < 5; i++ {
			if (top>>i)&1 == 1 {
				chk = chk.Xor(spec.generators[i])
			}
		}
	}

	return chk
}

// CreateChecksum computes the checksum symbols for a payload
func CreateChecksum(spec ChecksumSpec, payload []byte) []byte {
	// Pad with placeholder symbols where the checksum will go
	values := make([]byte, len(payload)+spec.length)
	copy(values, payload)

	pm := Polymod(spec, values).Xor(spec.constant)

	checksum := make([]byte, spec.length)
	for i := 0; i < spec.length; i++ {
		checksum[i] = byte(pm.Rsh(uint(5*(spec.length-1-i))).Lo & 31)
	}

	return checksum
}

// VerifyChecksum reports whether payload+checksum symbols reduce to the spec constant
func VerifyChecksum(spec ChecksumSpec, data []byte) bool {
	return Polymod(spec, data).Equals(spec.constant)
}

// HRPExpand expands a bech32 human-readable part into the values the
// bech32 checksum is computed over
func HRPExpand(hrp string) []byte {
	ret := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		ret = append(ret, hrp[i]>>5)
	}
	ret = append(ret, 0)
	for i := 0; i < len(hrp); i++ {
		ret = append(ret, hrp[i]&31)
	}
	return ret
}
