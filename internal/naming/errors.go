// internal/naming/errors.go
package naming

import "errors"

// ErrPathTraversal is returned when a built path would escape its library root.
var ErrPathTraversal = errors.New("path escapes library root")
