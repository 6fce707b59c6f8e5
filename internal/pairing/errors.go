package pairing

import "errors"

// Sentinel errors for the pairing package. Use errors.Is to check.
var (
	// ErrInvalidPairing indicates a malformed pairing request.
	ErrInvalidPairing = errors.New("invalid pairing request")

	// ErrSetupCodeMismatch indicates a pair/add request with the wrong
	// setup code. The request is rejected and no pairing is stored.
	ErrSetupCodeMismatch = errors.New("setup code mismatch")

	// ErrMalformedPayload indicates a command payload that is not valid JSON
	// or is missing required fields.
	ErrMalformedPayload = errors.New("malformed command payload")
)
