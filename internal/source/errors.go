package source

import "errors"

var (
	// ErrFetchFailed is returned when the provider could not be reached or
	// kept failing after all retries.
	ErrFetchFailed = errors.New("catalog fetch failed")

	// ErrEmptyResponse is returned when the provider answered with no body.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrUnauthorized is returned when the provider rejects the credentials.
	ErrUnauthorized = errors.New("provider rejected credentials")
)
