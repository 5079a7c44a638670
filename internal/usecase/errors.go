package usecase

import "errors"

// SubmissionFailedMessage is the only thing a candidate learns about an
// unexpected storage failure. The cause is logged, never returned.
const SubmissionFailedMessage = "We are very sorry but due to unforeseen circumstances your application could not be submitted, please try again later."

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPositionNotFound = errors.New("position not found")
	ErrReceiptInvalid   = errors.New("receipt invalid or expired")
	ErrSubmissionFailed = errors.New(SubmissionFailedMessage)
)
