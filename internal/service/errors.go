package service

import "errors"

var (
	// ErrTemplateNotFound is returned when the referenced template does not
	// exist or is not available.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrQuotaExceeded is returned when the owner has used up its quota.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrAlreadyCompleted is returned to candidates opening a finished
	// interview.
	ErrAlreadyCompleted = errors.New("interview already completed")
	// ErrNoAgent is returned when the template has no voice agent bound.
	ErrNoAgent = errors.New("no agent configured for this template")
	// ErrAccounting is returned when the status committed but the quota
	// update failed.
	ErrAccounting = errors.New("quota accounting failed")
)
