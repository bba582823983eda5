package services

import "errors"

// ErrValidation wraps every input problem found on the write path, so
// callers can tell bad input from storage failures with errors.Is.
var ErrValidation = errors.New("validation failed")
