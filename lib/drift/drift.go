// Package drift holds the checks that decide whether an upstream page
// still has the shape the scrapers were written against.
//
// every structural assumption a scraper makes should be asserted through
// one of these functions so that failures look the same everywhere and
// can be told apart from transport or parsing errors with errors.Is.
package drift

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
)

var ErrStructuralDrift = errors.New("structural drift")

// Error reports that an observed structural property of a page no longer
// matches what the scraper expects. it is never transient.
type Error struct {
	// Context describes which assumption failed.
	Context string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("structural drift: %s", e.Context)
	}
	return fmt.Sprintf("structural drift: %s: %s", e.Context, e.Detail)
}

func (e *Error) Is(target error) bool {
	return target == ErrStructuralDrift
}

func newError(context, format string, args ...any) *Error {
	return &Error{
		Context: context,
		Detail:  fmt.Sprintf(format, args...),
	}
}

// Count fails if observed != expected.
func Count(observed, expected int, context string) error {
	if observed != expected {
		return newError(context, "expected %d, observed %d", expected, observed)
	}
	return nil
}

// SequenceEquals fails if the two sequences differ in length or in any
// position.
func SequenceEquals[T comparable](observed, expected []T, context string) error {
	if len(observed) != len(expected) {
		return newError(
			context,
			"expected %d elements, observed %d (-expected +observed):\n%s",
			len(expected), len(observed), cmp.Diff(expected, observed),
		)
	}
	for i := range observed {
		if observed[i] != expected[i] {
			return newError(
				context,
				"first mismatch at index %d: expected %v, observed %v (-expected +observed):\n%s",
				i, expected[i], observed[i], cmp.Diff(expected, observed),
			)
		}
	}
	return nil
}

// SubsetPattern fails if the number of elements satisfying match is not
// expected.
func SubsetPattern[T any](observed []T, match func(T) bool, expected int, context string) error {
	matched := 0
	for _, o := range observed {
		if match(o) {
			matched++
		}
	}
	if matched != expected {
		return newError(
			context,
			"expected %d of %d elements to match, observed %d",
			expected, len(observed), matched,
		)
	}
	return nil
}

// Ascending fails unless every element is strictly greater than the one
// before it according to less.
func Ascending[T any](observed []T, less func(a, b T) bool, context string) error {
	for i := 1; i < len(observed); i++ {
		if !less(observed[i-1], observed[i]) {
			return newError(
				context,
				"element %d (%v) does not come after element %d (%v)",
				i, observed[i], i-1, observed[i-1],
			)
		}
	}
	return nil
}

// Is reports whether err is (or wraps) a structural drift failure.
func Is(err error) bool {
	return errors.Is(err, ErrStructuralDrift)
}
