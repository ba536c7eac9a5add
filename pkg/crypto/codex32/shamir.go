package codex32

import (
	"fmt"
	"io"
)

// Point is one (x, y) pair of a polynomial over GF(32)
type Point struct {
	X byte
	Y byte
}

// LagrangeInterpolate evaluates at x the unique polynomial of degree less
// than len(points) passing through points. Repeated X values are rejected
// with ErrDuplicateShareIndex since no such polynomial exists.
func LagrangeInterpolate(x byte, points []Point) (byte, error) {
	if x >= gf32Size {
		return 0, fmt.Errorf("%w: x=%d", ErrInvalidSymbol, x)
	}

	var seen [gf32Size]bool
	for _, p := range points {
		if p.X >= gf32Size || p.Y >= gf32Size {
			return 0, fmt.Errorf("%w: point (%d, %d)", ErrInvalidSymbol, p.X, p.Y)
		}
		if seen[p.X] {
			return 0, fmt.Errorf("%w: x=%d", ErrDuplicateShareIndex, p.X)
		}
		seen[p.X] = true
	}

	res := byte(0)

	for i, pi := range points {
		// The whole term is 0; skipping also avoids log(0) when x == pi.X
		if pi.Y == 0 {
			continue
		}

		// l_i(x) = product of (x - x_j) / (x_i - x_j) for j != i, in log form
		logLix := 0
		vanishes := false
		for j, pj := range points {
			if i == j {
				continue
			}
			if x == pj.X {
				vanishes = true
				break
			}
			logLix += int(gf32Log[x^pj.X]) + gf32Order
			logLix -= int(gf32Log[pi.X^pj.X])
			logLix %= gf32Order
		}
		if vanishes {
			continue
		}

		// Multiply l_i(x) by y_i and add to the result
		logLix += int(gf32Log[pi.Y])
		res ^= gf32Exp[logLix%gf32Order]
	}

	return res, nil
}

// ReconstructShares interpolates the shares at each target index and
// returns one new share per target, in target order
func ReconstructShares(shares []*Share, targets []Index) ([]*Share, error) {
	if err := validateQuorum(shares); err != nil {
		return nil, err
	}

	first := shares[0]
	k := first.threshold

	supplied := make(map[byte]bool, len(shares))
	for _, s := range shares {
		supplied[s.index.X()] = true
	}

	requested := make(map[byte]bool, len(targets))
	for _, t := range targets {
		if supplied[t.X()] {
			return nil, fmt.Errorf("%w: index %s already provided in shares list", ErrDuplicateIndexRequested, t)
		}
		if requested[t.X()] {
			return nil, fmt.Errorf("%w: index %s requested twice", ErrDuplicateIndexRequested, t)
		}
		requested[t.X()] = true
	}

	// One point set per symbol position
	dataLen := len(first.data)
	points := make([][]Point, dataLen)
	for pos := range points {
		points[pos] = make([]Point, len(shares))
		for i, s := range shares {
			points[pos][i] = Point{X: s.index.X(), Y: s.data[pos]}
		}
	}

	result := make([]*Share, 0, len(targets))
	for _, t := range targets {
		data := make([]byte, dataLen)
		for pos, ps := range points {
			y, err := LagrangeInterpolate(t.X(), ps)
			if err != nil {
				return nil, err
			}
			data[pos] = y
		}

		share, err := NewShare(first.spec, k, first.identifier, t, data)
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct share %s, shares are inconsistent: %w", t, err)
		}
		result = append(result, share)
	}

	return result, nil
}

// RecoverSecret reconstructs the secret share from a quorum. A quorum that
// already contains the secret share returns it once the quorum validates.
func RecoverSecret(shares []*Share) (*Share, error) {
	for _, s := range shares {
		if s.index.IsSecret() {
			if err := validateQuorum(shares); err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	recovered, err := ReconstructShares(shares, []Index{SecretIndex})
	if err != nil {
		return nil, err
	}
	return recovered[0], nil
}

// Split produces n shares of a k-of-n scheme from the secret share. The
// first k-1 shares (indices 0..k-2) take their payload from rand; the rest
// are derived. rand is supplied by the caller, usually crypto/rand.Reader.
func Split(master *Share, n int, rand io.Reader) ([]*Share, error) {
	if !master.index.IsSecret() {
		return nil, fmt.Errorf("%w: index %s", ErrNotSecretShare, master.index)
	}

	k := master.threshold
	if k < 2 {
		return nil, fmt.Errorf("%w: cannot split a secret with threshold %d", ErrInvalidThreshold, k)
	}

	if n < k || n > 31 {
		return nil, fmt.Errorf("%w: got %d for threshold %d", ErrInvalidShareCount, n, k)
	}

	payloadLen := len(master.data) - master.spec.length
	buf := make([]byte, payloadLen)
	defer func() {
		for i := range buf {
			buf[i] = 0
		}
	}()

	shares := make([]*Share, 0, n)
	for i := 0; i < k-1; i++ {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, fmt.Errorf("failed to generate random share: %w", err)
		}

		payload := make([]byte, payloadLen)
		for j, b := range buf {
			payload[j] = b & 31
		}

		index, err := ShareIndex(i)
		if err != nil {
			return nil, err
		}

		share, err := NewShare(master.spec, k, master.identifier, index, append(payload, CreateChecksum(master.spec, payload)...))
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}

	// Remaining indices in ascending order, skipping the secret's coordinate
	targets := make([]Index, 0, n-len(shares))
	for x := k - 1; len(shares)+len(targets) < n; x++ {
		if x == secretX {
			continue
		}
		index, err := ShareIndex(x)
		if err != nil {
			return nil, err
		}
		targets = append(targets, index)
	}

	derived, err := ReconstructShares(append([]*Share{master}, shares...), targets)
	if err != nil {
		return nil, fmt.Errorf("failed to derive shares: %w", err)
	}

	return append(shares, derived...), nil
}

// validateQuorum checks the share count against k before the shares themselves
func validateQuorum(shares []*Share) error {
	if len(shares) == 0 {
		return ErrNoShares
	}

	k := shares[0].threshold
	if len(shares) < k {
		return fmt.Errorf("%w: require at least %d shares, only %d given", ErrInsufficientShares, k, len(shares))
	}

	return validateShareConsistency(shares)
}

// validateShareConsistency checks that a quorum agrees on everything but the index
func validateShareConsistency(shares []*Share) error {
	first := shares[0]
	seen := make(map[byte]bool, len(shares))

	for i, s := range shares {
		if s.identifier != first.identifier {
			return fmt.Errorf("%w: share %d: %s != %s", ErrIdentifierMismatch, i+1, s.identifier, first.identifier)
		}

		if len(s.data) != len(first.data) {
			return fmt.Errorf("%w: share %d: %d != %d", ErrLengthMismatch, i+1, len(s.data), len(first.data))
		}

		if s.spec.name != first.spec.name {
			return fmt.Errorf("%w: share %d: %s != %s", ErrSpecMismatch, i+1, s.spec.name, first.spec.name)
		}

		if s.threshold != first.threshold {
			return fmt.Errorf("%w: share %d: %d != %d", ErrThresholdMismatch, i+1, s.threshold, first.threshold)
		}

		if seen[s.index.X()] {
			return fmt.Errorf("%w: %s", ErrDuplicateShareIndex, s.index)
		}
		seen[s.index.X()] = true
	}

	return nil
}
