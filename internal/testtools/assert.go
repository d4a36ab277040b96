package tt

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertEqual will compare the got argument with the expected argument
// and fail the test with an appropriate error message if they don't match.
func AssertEqual(t *testing.T, got interface{}, expected interface{}, msg ...interface{}) {
	t.Helper()
	require.Equal(t, expected, got, msg...)
}

// AssertNotEqual will compare the got argument with the expected argument
// and fail the test with an appropriate error message if they match.
func AssertNotEqual(t *testing.T, got interface{}, expected interface{}, msg ...interface{}) {
	t.Helper()
	require.NotEqual(t, expected, got, msg...)
}

// AssertNoErr will check if the input error is nil, and if not
// it will fail the test with an appropriate error message.
func AssertNoErr(t *testing.T, err error) {
	t.Helper()
	require.Equal(t, nil, err, "received unexpected error: %s", err)
}

// AssertErrContains will first check if the error that the error
// indeed is not nil, and then check if its error message contains
// all the substrs specified on the substrs argument.
//
// In case either assertion fails it will fail the test with
// an appropriate error message.
func AssertErrContains(t *testing.T, err error, substrs ...string) {
	t.Helper()
	require.NotEqual(t, nil, err, "expected an error but the error is nil")

	msg := err.Error()

	for _, substr := range substrs {
		require.True(t,
			strings.Contains(msg, substr),
			"missing substring '%s' in error message: '%s'",
			substr, msg,
		)
	}
}

// AssertErrIs checks that err matches target with errors.Is
func AssertErrIs(t *testing.T, err error, target error) {
	t.Helper()
	require.True(t, errors.Is(err, target), "expected error '%v' to match '%v'", err, target)
}

// AssertContains checks if the input text contains all the substrs
func AssertContains(t *testing.T, str string, substrs ...string) {
	t.Helper()
	for _, substr := range substrs {
		require.True(t,
			strings.Contains(str, substr),
			fmt.Sprintf("missing substring '%s' in text: '%s'", substr, str),
		)
	}
}
