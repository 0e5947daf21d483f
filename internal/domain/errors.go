package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExerciseNotFound is returned when an exercise id or number is unknown.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrEvaluationNotFound is returned when an evaluation does not exist or
	// belongs to another user.
	ErrEvaluationNotFound = errors.New("evaluation not found")
	// ErrProgressNotFound is returned when no progress record exists yet.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrUserNotFound is returned when a user id or email is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuestionNotFound indicates a submitted question id is not part of the exercise.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrEvaluationCompleted is returned on a second submission attempt.
	ErrEvaluationCompleted = errors.New("evaluation already completed")
	// ErrEmptyQuestionPool is returned when no active gradable content exists.
	ErrEmptyQuestionPool = errors.New("no gradable questions available")
	// ErrNotGradable indicates the exercise type has no algorithmic verdict.
	ErrNotGradable = errors.New("exercise type is not gradable")
	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials covers bad email/password pairs at login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResetToken covers unknown or expired password reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// ValidationError rejects a whole exercise write. It carries a human-readable
// reason; callers must not persist anything when they receive one.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Invalidf builds a ValidationError from a format string.
func Invalidf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
