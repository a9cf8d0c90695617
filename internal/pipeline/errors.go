package pipeline

import "fmt"

// MissingSourceError reports a raw source file that is absent or unreadable.
type MissingSourceError struct {
	Path string
	Err  error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing source %s: %v", e.Path, e.Err)
}

func (e *MissingSourceError) Unwrap() error { return e.Err }

// MalformedDateError reports a date value the cleaner could not parse.
type MalformedDateError struct {
	Column string
	Row    int
	Value  any
	Err    error
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date in %s row %d: %v", e.Column, e.Row, e.Value)
}

func (e *MalformedDateError) Unwrap() error { return e.Err }

// TypeCoercionError reports a value that could not be coerced to the type a
// cleaning rule requires.
type TypeCoercionError struct {
	Column string
	Row    int
	Value  any
	Want   string
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %s row %d value %v to %s", e.Column, e.Row, e.Value, e.Want)
}

// JoinIntegrityError reports fact rows lost on the geography join. It is
// returned only under the fail integrity policy; the default policy reports
// the same condition as a warning on the model result.
type JoinIntegrityError struct {
	Expected int
	Actual   int
}

func (e *JoinIntegrityError) Error() string {
	return fmt.Sprintf("%d rows lost during modeling join (expected %d, got %d)",
		e.Expected-e.Actual, e.Expected, e.Actual)
}
