package workflow

import "errors"

var (
	// ErrForbidden is returned when the principal's role may not run the operation
	ErrForbidden = errors.New("forbidden")
	// ErrArticleNotFound is returned for unknown ids and for articles the
	// principal may not see
	ErrArticleNotFound = errors.New("article not found")
	// ErrValidation wraps bad submission or verdict input
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition is returned when the article is not in a state the
	// operation accepts, including losing a concurrent review
	ErrInvalidTransition = errors.New("invalid status transition")
)
