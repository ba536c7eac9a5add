package codex32

import "errors"

var (
	// ErrInvalidThreshold is returned when k is not 0 or 2-9, or k is 0 on a non-secret share.
	ErrInvalidThreshold = errors.New("codex32: threshold must be 0 or between 2 and 9, and 0 only for the secret share")

	// ErrInvalidIdentifierLength is returned when an identifier is not exactly four characters.
	ErrInvalidIdentifierLength = errors.New("codex32: identifier must have length four")

	// ErrChecksumMismatch is returned when share data does not verify under its checksum.
	ErrChecksumMismatch = errors.New("codex32: checksum does not verify")

	// ErrDivisionByZero is returned when dividing by zero in GF(32).
	ErrDivisionByZero = errors.New("codex32: division by zero in GF(32)")

	// ErrInvalidSymbol is returned when encoding a value outside [0,31].
	ErrInvalidSymbol = errors.New("codex32: symbol value out of range")

	// ErrInvalidCharacter is returned when decoding a character outside the charset.
	ErrInvalidCharacter = errors.New("codex32: invalid character")

	// ErrBitConversion is returned when ConvertBits cannot regroup the input exactly.
	ErrBitConversion = errors.New("codex32: invalid bit conversion")

	// ErrInsufficientShares is returned when fewer than k shares are supplied.
	ErrInsufficientShares = errors.New("codex32: insufficient shares for reconstruction")

	// ErrIdentifierMismatch is returned when shares carry different identifiers.
	ErrIdentifierMismatch = errors.New("codex32: shares must all have the same identifier")

	// ErrLengthMismatch is returned when shares carry different data lengths.
	ErrLengthMismatch = errors.New("codex32: shares must all have the same data length")

	// ErrThresholdMismatch is returned when shares disagree on k.
	ErrThresholdMismatch = errors.New("codex32: shares must all have the same threshold")

	// ErrSpecMismatch is returned when shares verify under different checksum specifications.
	ErrSpecMismatch = errors.New("codex32: shares must all use the same checksum")

	// ErrDuplicateIndexRequested is returned when a requested index is already supplied or repeated.
	ErrDuplicateIndexRequested = errors.New("codex32: requested index already present")

	// ErrDuplicateShareIndex is returned when two supplied shares have the same index.
	ErrDuplicateShareIndex = errors.New("codex32: duplicate share index")

	// ErrNoShares is returned when an empty share list is supplied.
	ErrNoShares = errors.New("codex32: shares list cannot be empty")

	// ErrInvalidIndex is returned for share indices outside [0,31] or equal to 16.
	ErrInvalidIndex = errors.New("codex32: share index must be in [0,31] and not 16")

	// ErrInvalidPrefix is returned when a share string does not start with "ms1".
	ErrInvalidPrefix = errors.New("codex32: share must start with ms1")

	// ErrMixedCase is returned when a share string mixes upper and lower case.
	ErrMixedCase = errors.New("codex32: share must not mix upper and lower case")

	// ErrInvalidLength is returned when a share string is too short to hold a checksum.
	ErrInvalidLength = errors.New("codex32: share string too short")

	// ErrNotSecretShare is returned when secret bytes are requested from a numbered share.
	ErrNotSecretShare = errors.New("codex32: share is not the secret share")

	// ErrUnknownChecksum is returned for an unknown checksum specification name.
	ErrUnknownChecksum = errors.New("codex32: unknown checksum specification")

	// ErrInvalidSecretLength is returned for a master secret outside 16-64 bytes.
	ErrInvalidSecretLength = errors.New("codex32: master secret must be between 16 and 64 bytes")

	// ErrInvalidShareCount is returned when a split asks for an impossible number of shares.
	ErrInvalidShareCount = errors.New("codex32: share count must be between k and 31")

	// ErrTableCorrupt means the shipped GF(32) tables disagree with the field polynomial.
	ErrTableCorrupt = errors.New("codex32: GF(32) tables do not match the field polynomial")
)
