package storage

import "io"

// BlobStore holds poem recitation audio and other static assets.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
