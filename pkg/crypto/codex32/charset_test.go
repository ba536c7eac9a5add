package codex32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	all := make([]byte, 32)
	for i := range all {
		all[i] = byte(i)
	}

	encoded, err := Encode(all)
	require.NoError(t, err)
	assert.Equal(t, Charset, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, all, decoded)

	assert.Equal(t, byte('s'), Charset[secretX])
}

func TestEncodeInvalidSymbol(t *testing.T) {
	_, err := Encode([]byte{0, 32})
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"excluded digit one", "qp1z"},
		{"excluded letter b", "bq"},
		{"excluded letter i", "qi"},
		{"excluded letter o", "oq"},
		{"uppercase", "QP"},
		{"non-ascii", "q\xffp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			assert.ErrorIs(t, err, ErrInvalidCharacter)
		})
	}
}

func TestConvertBits(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		from, to uint
		pad      bool
		expected []byte
		wantErr  bool
	}{
		{
			name: "byte to symbols padded",
			data: []byte{0xff}, from: 8, to: 5, pad: true,
			expected: []byte{31, 28},
		},
		{
			name: "symbols to byte",
			data: []byte{31, 28}, from: 5, to: 8, pad: false,
			expected: []byte{255},
		},
		{
			name: "non-zero padding rejected",
			data: []byte{31, 29}, from: 5, to: 8, pad: false,
			wantErr: true,
		},
		{
			name: "exact multiple",
			data: []byte{0, 1, 2, 3, 4}, from: 8, to: 5, pad: false,
			expected: []byte{0, 0, 0, 16, 4, 0, 24, 4},
		},
		{
			name: "empty",
			data: nil, from: 8, to: 5, pad: true,
			expected: []byte{},
		},
		{
			name: "value too wide",
			data: []byte{32}, from: 5, to: 8, pad: true,
			wantErr: true,
		},
		{
			name: "zero width",
			data: []byte{1}, from: 0, to: 8, pad: true,
			wantErr: true,
		},
		{
			name: "too wide",
			data: []byte{1}, from: 8, to: 9, pad: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertBits(tt.data, tt.from, tt.to, tt.pad)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBitConversion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertBitsRoundTrip(t *testing.T) {
	for n := 16; n <= 64; n++ {
		secret := make([]byte, n)
		for i := range secret {
			secret[i] = byte(i*7 + n)
		}

		symbols, err := ConvertBits(secret, 8, 5, true)
		require.NoError(t, err)
		assert.Len(t, symbols, (n*8+4)/5)

		padded, err := ConvertBits(symbols, 5, 8, true)
		require.NoError(t, err)
		assert.Equal(t, secret, padded[:len(symbols)*5/8])
	}
}
