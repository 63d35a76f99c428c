package domain

import "errors"

// Error kinds. Specific errors below unwrap to exactly one of these, so callers
// can branch with errors.Is(err, domain.ErrNotFound) without knowing every case.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = newError(ErrNotFound, "quiz not found")
	// ErrAttemptNotFound is returned for unknown attempt ids.
	ErrAttemptNotFound = newError(ErrNotFound, "attempt not found")
	// ErrNameRequired is returned when an attempt is started without a participant name.
	ErrNameRequired = newError(ErrInvalidInput, "name is required")
	// ErrQuizRequired is returned when an attempt is started without a quiz id.
	ErrQuizRequired = newError(ErrInvalidInput, "quiz_id is required")
	// ErrQuestionRequired is returned when an answer carries no question id.
	ErrQuestionRequired = newError(ErrInvalidInput, "question_id is required")
	// ErrQuestionNotInQuiz indicates an answer for a question the attempt's quiz does not contain.
	ErrQuestionNotInQuiz = newError(ErrInvalidInput, "question does not belong to quiz")
	// ErrAttemptSubmitted is returned when an answer arrives after the attempt was scored.
	ErrAttemptSubmitted = newError(ErrInvalidState, "attempt already submitted")
	// ErrInvalidAdminToken rejects admin calls with a missing or wrong shared secret.
	ErrInvalidAdminToken = newError(ErrUnauthorized, "invalid admin token")
)

type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// InvalidInput builds an ErrInvalidInput error with a caller supplied message.
func InvalidInput(msg string) error {
	return newError(ErrInvalidInput, msg)
}
