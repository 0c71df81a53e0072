package fingerprint

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexFingerprint = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestGenerateFormat(t *testing.T) {
	fp, err := Generate(Fields{
		StudentName:      "Asha Rao",
		EnrollmentNumber: "E100",
		Program:          "B.Sc",
		Institution:      "NIT",
		IssueYear:        2023,
	}, fixedClock(time.Unix(1700000000, 0)))
	require.NoError(t, err)
	assert.Regexp(t, hexFingerprint, fp)
}

func TestGenerateDeterministicForSameInstant(t *testing.T) {
	fields := Fields{
		StudentName:      "Asha Rao",
		EnrollmentNumber: "E100",
		Program:          "B.Sc",
		Institution:      "NIT",
		IssueYear:        2023,
	}
	at := time.Unix(1700000000, 0)

	first, err := Generate(fields, fixedClock(at))
	require.NoError(t, err)
	second, err := Generate(fields, fixedClock(at))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateSaltedAcrossInstants(t *testing.T) {
	// Identical fields at different instants must not collide: the timestamp
	// salt makes the fingerprint non-idempotent across calls.
	fields := Fields{
		StudentName:      "Asha Rao",
		EnrollmentNumber: "E100",
		Program:          "B.Sc",
		Institution:      "NIT",
		IssueYear:        2023,
	}

	first, err := Generate(fields, fixedClock(time.Unix(1700000000, 0)))
	require.NoError(t, err)
	second, err := Generate(fields, fixedClock(time.Unix(1700000001, 0)))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateDistinguishesFields(t *testing.T) {
	at := time.Unix(1700000000, 0)
	a, err := Generate(Fields{StudentName: "Asha Rao", EnrollmentNumber: "E100", Program: "B.Sc", Institution: "NIT", IssueYear: 2023}, fixedClock(at))
	require.NoError(t, err)
	b, err := Generate(Fields{StudentName: "Asha Rao", EnrollmentNumber: "E101", Program: "B.Sc", Institution: "NIT", IssueYear: 2023}, fixedClock(at))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerateDefaultsToWallClock(t *testing.T) {
	fp, err := Generate(Fields{StudentName: "x", EnrollmentNumber: "y", Program: "z", Institution: "w", IssueYear: 1}, nil)
	require.NoError(t, err)
	assert.Regexp(t, hexFingerprint, fp)
}
