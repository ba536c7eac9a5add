package codex32

import "fmt"

// Charset maps 5-bit symbol values to characters
const Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// charsetRev maps a lowercase character back to its symbol value, -1 if absent
var charsetRev [128]int8

func init() {
	for i := range charsetRev {
		charsetRev[i] = -1
	}
	for i := 0; i < len(Charset); i++ {
		charsetRev[Charset[i]] = int8(i)
	}
}

// Encode maps 5-bit symbols to their charset characters
func Encode(symbols []byte) (string, error) {
	out := make([]byte, len(symbols))
	for i, s := range symbols {
		if s > 31 {
			return "", fmt.Errorf("%w: %d at position %d", ErrInvalidSymbol, s, i)
		}
		out[i] = Charset[s]
	}
	return string(out), nil
}

// Decode maps charset characters back to 5-bit symbols
func Decode(s string) ([]byte, error) {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 || charsetRev[c] == -1 {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, c, i)
		}
		out[i] = byte(charsetRev[c])
	}
	return out, nil
}

// ConvertBits regroups a sequence of fromBits-wide values into toBits-wide
// values, most significant bit first. With pad set a trailing partial group
// is filled with zero bits; without it the leftover bits must be zero and
// fewer than fromBits.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	if fromBits == 0 || fromBits > 8 || toBits == 0 || toBits > 8 {
		return nil, fmt.Errorf("%w: unsupported widths %d -> %d", ErrBitConversion, fromBits, toBits)
	}

	var (
		acc  uint32
		bits uint
	)
	maxv := uint32(1)<<toBits - 1
	maxAcc := uint32(1)<<(fromBits+toBits-1) - 1

	ret := make([]byte, 0, (len(data)*int(fromBits)+int(toBits)-1)/int(toBits))
	for i, value := range data {
		if uint32(value)>>fromBits != 0 {
			return nil, fmt.Errorf("%w: value %d at position %d exceeds %d bits", ErrBitConversion, value, i, fromBits)
		}
		acc = (acc<<fromBits | uint32(value)) & maxAcc
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte(acc>>bits&maxv))
		}
	}

	if pad {
		if bits > 0 {
			ret = append(ret, byte(acc<<(toBits-bits)&maxv))
		}
	} else if bits >= fromBits || acc<<(toBits-bits)&maxv != 0 {
		return nil, fmt.Errorf("%w: %d leftover bits", ErrBitConversion, bits)
	}

	return ret, nil
}
