// Package storage keeps interview media twice: a local backup on disk and,
// when reachable, a copy in an S3 bucket.
package storage

import (
	"context"
	"errors"
)

// Key prefixes and content types of the media kinds stored remotely.
const (
	VideoPrefix      = "video/"
	AudioPrefix      = "audio/"
	VideoContentType = "video/webm"
	AudioContentType = "audio/mpeg"
)

// ErrNotConfigured is returned by Disabled for every call.
var ErrNotConfigured = errors.New("object storage not configured")

// ObjectStore is the remote half of dual storage.
type ObjectStore interface {
	// Ping checks that the bucket is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
	// Put uploads data under key and returns the object's public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Disabled is the ObjectStore used when no bucket is configured.  Media is
// then kept locally only.
type Disabled struct{}

func (Disabled) Ping(context.Context) error { return ErrNotConfigured }

func (Disabled) Put(context.Context, string, []byte, string) (string, error) {
	return "", ErrNotConfigured
}
