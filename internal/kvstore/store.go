// Package kvstore defines the persistent key/value substrate the
// repositories are built on. Records are stored as opaque byte values
// under string keys; related records share a key prefix.
package kvstore

import "errors"

// ErrUnavailable indicates the underlying storage could not serve the
// request. It is wrapped by implementations so callers can detect it
// with errors.Is.
var ErrUnavailable = errors.New("storage unavailable")

// Store is the capability injected into repositories. Get reports
// absence with found=false rather than an error.
type Store interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}
