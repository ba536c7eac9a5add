package codex32

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	derived1Test  = "ms12testpnnnjenxencqngkn3980jxq8g9v89kejpkjzyd0xxqem9a2n6qx7s3hmp7jw8vwq92"
	derivedCTest  = "ms12testcmmmram0am9dmjcmzwhgr0dhjwfhwcar4cr5k3g00daywxtmud08sz4f6j46ttsd7v"
	derived31Test = "ms12testlkkkf0kj0kszkvwkp6drfjzdv6td6w0fawf495rjjz0c6gmk8zjqspu65d7j5quzsh"
)

func mustParse(t *testing.T, encoded ...string) []*Share {
	t.Helper()
	shares, err := ParseShares(encoded)
	require.NoError(t, err)
	return shares
}

func mustIndex(t *testing.T, n int) Index {
	t.Helper()
	index, err := ShareIndex(n)
	require.NoError(t, err)
	return index
}

func interpolate(t *testing.T, x byte, points []Point) byte {
	t.Helper()
	y, err := LagrangeInterpolate(x, points)
	require.NoError(t, err)
	return y
}

func TestLagrangeInterpolate(t *testing.T) {
	t.Run("zero y values are skipped", func(t *testing.T) {
		points := []Point{{X: 1, Y: 0}, {X: 2, Y: 5}}
		assert.Equal(t, byte(0), interpolate(t, 1, points))
		assert.Equal(t, byte(5), interpolate(t, 2, points))
	})

	t.Run("passes through every point", func(t *testing.T) {
		points := []Point{{X: 0, Y: 7}, {X: 3, Y: 19}, {X: 16, Y: 31}, {X: 30, Y: 1}}
		for _, p := range points {
			assert.Equal(t, p.Y, interpolate(t, p.X, points), "x=%d", p.X)
		}
	})

	t.Run("constant polynomial", func(t *testing.T) {
		points := []Point{{X: 4, Y: 11}, {X: 9, Y: 11}}
		for x := byte(0); x < 32; x++ {
			assert.Equal(t, byte(11), interpolate(t, x, points))
		}
	})

	t.Run("linear polynomial", func(t *testing.T) {
		// f(x) = 3 + 5x
		f := func(x byte) byte { return Add(3, Multiply(5, x)) }
		points := []Point{{X: 1, Y: f(1)}, {X: 2, Y: f(2)}}
		for x := byte(0); x < 32; x++ {
			assert.Equal(t, f(x), interpolate(t, x, points), "x=%d", x)
		}
	})
}

func TestLagrangeInterpolateErrors(t *testing.T) {
	tests := []struct {
		name     string
		x        byte
		points   []Point
		expected error
	}{
		{"repeated x", 5, []Point{{X: 1, Y: 3}, {X: 1, Y: 4}}, ErrDuplicateShareIndex},
		{"repeated x with equal y", 5, []Point{{X: 2, Y: 3}, {X: 7, Y: 0}, {X: 2, Y: 3}}, ErrDuplicateShareIndex},
		{"x outside the field", 32, []Point{{X: 1, Y: 3}}, ErrInvalidSymbol},
		{"point outside the field", 5, []Point{{X: 1, Y: 32}}, ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, err := LagrangeInterpolate(tt.x, tt.points)
			assert.ErrorIs(t, err, tt.expected)
			assert.Zero(t, y)
		})
	}
}

func TestReconstructShares(t *testing.T) {
	shares := mustParse(t, masterTest, share0Test)

	derived, err := ReconstructShares(shares, []Index{mustIndex(t, 1), mustIndex(t, 24), mustIndex(t, 31)})
	require.NoError(t, err)
	require.Len(t, derived, 3)

	assert.Equal(t, derived1Test, derived[0].String())
	assert.Equal(t, derivedCTest, derived[1].String())
	assert.Equal(t, derived31Test, derived[2].String())

	t.Run("no targets", func(t *testing.T) {
		none, err := ReconstructShares(shares, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("secret from derived shares", func(t *testing.T) {
		secret, err := RecoverSecret(mustParse(t, derived1Test, derived31Test))
		require.NoError(t, err)
		assert.Equal(t, masterTest, secret.String())
	})

	t.Run("numbered share from derived shares", func(t *testing.T) {
		again, err := ReconstructShares(mustParse(t, derivedCTest, derived31Test), []Index{mustIndex(t, 0)})
		require.NoError(t, err)
		assert.Equal(t, share0Test, again[0].String())
	})
}

func TestReconstructSharesErrors(t *testing.T) {
	other, err := NewMasterShare(sequentialBytes(32), 2, "tezt")
	require.NoError(t, err)
	short, err := NewMasterShare(sequentialBytes(16), 2, "test")
	require.NoError(t, err)
	three, err := NewMasterShare(sequentialBytes(32), 3, "test")
	require.NoError(t, err)

	zero := mustParse(t, share0Test)[0]
	master := mustParse(t, masterTest)[0]

	tests := []struct {
		name     string
		shares   []*Share
		targets  []Index
		expected error
	}{
		{"no shares", nil, []Index{SecretIndex}, ErrNoShares},
		{"below threshold", []*Share{zero}, []Index{SecretIndex}, ErrInsufficientShares},
		{"identifier mismatch", []*Share{zero, other}, []Index{mustIndex(t, 1)}, ErrIdentifierMismatch},
		{"length mismatch", []*Share{zero, short}, []Index{mustIndex(t, 1)}, ErrLengthMismatch},
		{"threshold mismatch", []*Share{zero, three}, []Index{mustIndex(t, 1)}, ErrThresholdMismatch},
		{"duplicate share", []*Share{zero, zero}, []Index{mustIndex(t, 1)}, ErrDuplicateShareIndex},
		{"target already supplied", []*Share{zero, master}, []Index{mustIndex(t, 0)}, ErrDuplicateIndexRequested},
		{"secret already supplied", []*Share{zero, master}, []Index{SecretIndex}, ErrDuplicateIndexRequested},
		{"target repeated", []*Share{zero, master}, []Index{mustIndex(t, 3), mustIndex(t, 3)}, ErrDuplicateIndexRequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReconstructShares(tt.shares, tt.targets)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestReconstructSharesSpecMismatch(t *testing.T) {
	zero := mustParse(t, share0Test)[0]

	// Same total length as an MS32 share, different checksum
	payload := append(zero.Payload(), make([]byte, MS32.Length()-Bech32m.Length())...)
	data := append(payload, CreateChecksum(Bech32m, payload)...)
	require.Len(t, data, len(zero.Data()))
	one, err := NewShare(Bech32m, 2, "test", mustIndex(t, 1), data)
	require.NoError(t, err)

	_, err = ReconstructShares([]*Share{zero, one}, []Index{SecretIndex})
	assert.ErrorIs(t, err, ErrSpecMismatch)
}

func TestRecoverSecretWithMasterPresent(t *testing.T) {
	shares := mustParse(t, derivedCTest, masterTest)

	secret, err := RecoverSecret(shares)
	require.NoError(t, err)
	assert.Equal(t, masterTest, secret.String())

	_, err = RecoverSecret(mustParse(t, masterTest))
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestSplit(t *testing.T) {
	master, err := NewMasterShare(sequentialBytes(32), 2, "test")
	require.NoError(t, err)

	shares, err := Split(master, 31, rand.Reader)
	require.NoError(t, err)
	require.Len(t, shares, 31)

	seen := make(map[byte]bool)
	for _, s := range shares {
		assert.False(t, s.Index().IsSecret())
		assert.False(t, seen[s.Index().X()])
		seen[s.Index().X()] = true
		assert.Equal(t, 2, s.Threshold())
		assert.Equal(t, "test", s.Identifier())
	}

	// Every pair of the 32 shares, master included, recovers the secret
	all := append([]*Share{master}, shares...)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			recovered, err := RecoverSecret([]*Share{all[i], all[j]})
			require.NoError(t, err, "shares %s and %s", all[i].Index(), all[j].Index())
			require.Equal(t, masterTest, recovered.String())
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	master, err := NewMasterShare(sequentialBytes(32), 2, "test")
	require.NoError(t, err)

	// A reader of 0xff bytes yields the all-31 payload at index 0
	shares, err := Split(master, 4, bytes.NewReader(bytes.Repeat([]byte{0xff}, 52)))
	require.NoError(t, err)
	require.Len(t, shares, 4)

	expected := []string{
		"ms12testqllllllllllllllllllllllllllllllllllllllllllllllllllll7w3n5r3vs93e3",
		"ms12testpnnnjenxencqngkn3980jxq8g9v89kejpkjzyd0xxqem9a2n6qx7jxaas79es7y4pw",
		"ms12testz8889n8yn83g8cd8rzxk9ygxczsxzdn92d9vqjkyygnhzmu84gya98pf4q0pav8eqx",
		"ms12testrtttg4ta4tkht0ytdc7xgah70cr7cy4g5yg3mqxaah4nceftshauglj9k2ffpzxace",
	}
	assert.Equal(t, expected, shareStrings(shares))
}

func TestSplitSkipsSecretIndex(t *testing.T) {
	master, err := NewMasterShare(sequentialBytes(16), 9, "dust")
	require.NoError(t, err)

	shares, err := Split(master, 20, rand.Reader)
	require.NoError(t, err)
	require.Len(t, shares, 20)

	for _, s := range shares {
		assert.NotEqual(t, byte(secretX), s.Index().X())
	}
	assert.Equal(t, byte(20), shares[19].Index().X())

	secret, err := RecoverSecret(shares[11:])
	require.NoError(t, err)
	assert.Equal(t, master.String(), secret.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestSplitErrors(t *testing.T) {
	master, err := NewMasterShare(sequentialBytes(32), 3, "test")
	require.NoError(t, err)

	_, err = Split(master, 2, rand.Reader)
	assert.ErrorIs(t, err, ErrInvalidShareCount)

	_, err = Split(master, 32, rand.Reader)
	assert.ErrorIs(t, err, ErrInvalidShareCount)

	_, err = Split(master, 5, failingReader{})
	assert.Error(t, err)

	unshared, err := NewMasterShare(sequentialBytes(32), 0, "test")
	require.NoError(t, err)
	_, err = Split(unshared, 3, rand.Reader)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	numbered := mustParse(t, share0Test)[0]
	_, err = Split(numbered, 3, rand.Reader)
	assert.ErrorIs(t, err, ErrNotSecretShare)
}

func TestSplitAndRecoverMasterSecret(t *testing.T) {
	secret := sequentialBytes(32)

	encoded, err := SplitMasterSecret(secret, 3, 5, "acdc", rand.Reader)
	require.NoError(t, err)
	require.Len(t, encoded, 5)

	recovered, err := RecoverMasterSecret(encoded[2:])
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)

	_, err = RecoverMasterSecret(encoded[:2])
	assert.ErrorIs(t, err, ErrInsufficientShares)

	derived, err := DeriveShares(encoded[:3], []Index{mustIndex(t, 10)})
	require.NoError(t, err)
	require.Len(t, derived, 1)
	require.NoError(t, ValidateShare(derived[0]))

	recovered, err = RecoverMasterSecret([]string{derived[0], encoded[3], encoded[4]})
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
}
