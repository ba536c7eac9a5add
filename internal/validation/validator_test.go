package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
)

func TestValidateHex(t *testing.T) {
	assert.NoError(t, ValidateHex("00ff"))
	assert.NoError(t, ValidateHex(" DEADbeef \n"))
	assert.Error(t, ValidateHex(""))
	assert.Error(t, ValidateHex("abc"))
	assert.Error(t, ValidateHex("zz"))
}

func TestValidateSecretLength(t *testing.T) {
	assert.NoError(t, ValidateSecretLength(16))
	assert.NoError(t, ValidateSecretLength(64))
	assert.Error(t, ValidateSecretLength(15))
	assert.Error(t, ValidateSecretLength(65))
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"test", false},
		{"CASH", false},
		{"x3pp", false},
		{"abcd", true},
		{"tes", true},
		{"tests", true},
		{"te1t", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateIdentifier(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSplitParams(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		shares    int
		wantErr   bool
	}{
		{"2 of 3", 2, 3, false},
		{"9 of 31", 9, 31, false},
		{"k equals n", 4, 4, false},
		{"threshold 1", 1, 3, true},
		{"threshold 10", 10, 12, true},
		{"fewer shares than threshold", 3, 2, true},
		{"too many shares", 2, 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplitParams(tt.threshold, tt.shares)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseIndexList(t *testing.T) {
	indices, err := ParseIndexList("1, c ,31,s,Q")
	require.NoError(t, err)
	require.Len(t, indices, 5)

	assert.Equal(t, byte(1), indices[0].X())
	assert.Equal(t, byte(24), indices[1].X())
	assert.Equal(t, byte(31), indices[2].X())
	assert.Equal(t, codex32.SecretIndex, indices[3])
	assert.Equal(t, byte(0), indices[4].X())

	for _, input := range []string{"", " , ", "16", "32", "b", "cc", "-1"} {
		_, err := ParseIndexList(input)
		assert.Error(t, err, input)
	}
}

func TestValidatePassphrase(t *testing.T) {
	assert.NoError(t, ValidatePassphrase("correct horse"))
	assert.Error(t, ValidatePassphrase("bad\x00pass"))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "ms12a\nms12b", SanitizeInput("  ms12a  \r\n  ms12b \r"))
}
