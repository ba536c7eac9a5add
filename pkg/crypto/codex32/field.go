package codex32

import "fmt"

// GF(32) arithmetic over the field GF(2)[x] / (x^5 + x^3 + 1), the field
// behind bech32. Elements are the integers 0-31; addition is XOR.

const (
	// gf32ExtMod encodes the defining polynomial x^5 + x^3 + 1
	gf32ExtMod = 41

	// gf32Size is the number of field elements
	gf32Size = 32

	// gf32Order is the order of the multiplicative group
	gf32Order = 31
)

// gf32Exp holds powers of the generator x, with gf32Exp[31] wrapping back to 1
var gf32Exp = [32]byte{
	1, 2, 4, 8, 16, 9, 18, 13,
	26, 29, 19, 15, 30, 21, 3, 6,
	12, 24, 25, 27, 31, 23, 7, 14,
	28, 17, 11, 22, 5, 10, 20, 1,
}

// gf32Log is the inverse of gf32Exp. Entry 0 has no logarithm and is never read.
var gf32Log = [32]byte{
	0, 31, 1, 14, 2, 28, 15, 22,
	3, 5, 29, 26, 16, 7, 23, 11,
	4, 25, 6, 10, 30, 13, 27, 21,
	17, 18, 8, 19, 24, 9, 12, 20,
}

func init() {
	// A wrong table makes every checksum and share meaningless
	if err := VerifyTables(); err != nil {
		panic(err)
	}
}

// VerifyTables regenerates the exp and log tables from the field polynomial
// and compares them with the shipped constants
func VerifyTables() error {
	if gf32Exp[0] != 1 {
		return fmt.Errorf("%w: exp[0] = %d, expected 1", ErrTableCorrupt, gf32Exp[0])
	}

	v := 1
	for i := 1; i < 32; i++ {
		// Multiply by x and reduce
		v <<= 1
		if v&32 != 0 {
			v ^= gf32ExtMod
		}

		if int(gf32Log[v]) != i {
			return fmt.Errorf("%w: log[%d] = %d, expected %d", ErrTableCorrupt, v, gf32Log[v], i)
		}
		if int(gf32Exp[i]) != v {
			return fmt.Errorf("%w: exp[%d] = %d, expected %d", ErrTableCorrupt, i, gf32Exp[i], v)
		}
	}

	return nil
}

// Add adds two field elements. Subtraction is the same operation.
func Add(a, b byte) byte {
	return a ^ b
}

// Multiply multiplies two field elements using the log/exp tables
func Multiply(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}

	logResult := (int(gf32Log[a]) + int(gf32Log[b])) % gf32Order
	return gf32Exp[logResult]
}

// Divide divides a by b
func Divide(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}

	logResult := (int(gf32Log[a]) - int(gf32Log[b]) + gf32Order) % gf32Order
	return gf32Exp[logResult], nil
}
