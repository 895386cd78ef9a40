package domain

import "errors"

// ErrUnreadableImage is returned when an input file cannot be decoded as an image.
var ErrUnreadableImage = errors.New("unreadable image")

// ErrUnknownStyle is returned when a blueprint color scheme name is not registered.
var ErrUnknownStyle = errors.New("unknown blueprint style")

// ErrUnknownDetail is returned for detail levels other than high, medium or low.
var ErrUnknownDetail = errors.New("unknown detail level")

// ErrUnknownPosition is returned when an annotation corner cannot be parsed.
var ErrUnknownPosition = errors.New("unknown annotation position")

// ErrUnknownVariationType is returned for variation slots other than head, body or trait.
var ErrUnknownVariationType = errors.New("unknown variation type")

// ErrCacheMiss is returned by caches when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ErrEmptyBatch is returned when a batch selects no input files.
var ErrEmptyBatch = errors.New("no input files matched")

// ErrLockAcquire is returned when a distributed lock cannot be taken.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")
