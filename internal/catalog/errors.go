package catalog

import "errors"

var (
	// ErrUnknownFormat indicates a catalog format other than m3u or xtream.
	ErrUnknownFormat = errors.New("unknown catalog format")

	// ErrEmptyCatalog indicates the catalog produced no usable entries.
	ErrEmptyCatalog = errors.New("catalog contains no entries")

	// ErrMalformedPayload indicates an Xtream payload that could not be decoded.
	ErrMalformedPayload = errors.New("malformed xtream payload")

	// errNoURL marks an #EXTINF record without a playable URL line.
	errNoURL = errors.New("missing stream url")
)
