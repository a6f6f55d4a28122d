package coordinator

import "github.com/pkg/errors"

// LogicError is a leaf semantic error raised by the coordinator's public
// contract (an unknown set id, a malformed aggregate reference), kept as a
// plain Op/Message pair per the teacher's LogicError shape rather than a
// family of typed error values.
type LogicError struct {
	Op      string
	Message string
}

func (e *LogicError) Error() string { return e.Op + ": " + e.Message }

// wrapf stamps op onto a LogicError and lets github.com/pkg/errors attach a
// stack trace, so a caller far from the coordinator can still tell where a
// semantic error originated.
func wrapf(op, format string, args ...interface{}) error {
	return errors.WithStack(&LogicError{Op: op, Message: errors.Errorf(format, args...).Error()})
}
