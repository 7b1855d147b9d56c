// Package core defines sentinel errors.
package core

import "errors"

// Frame decode errors. Each failure is terminal for that frame only; the
// caller discards the frame and keeps ingesting.
var (
	ErrFrameTooShort        = errors.New("cortex: frame too short")
	ErrInvalidHeader        = errors.New("cortex: invalid sync bytes")
	ErrChecksumMismatch     = errors.New("cortex: checksum mismatch")
	ErrUnknownDeviceClass   = errors.New("cortex: unknown device class")
	ErrChannelCountMismatch = errors.New("cortex: channel count mismatch")
	ErrLengthMismatch       = errors.New("cortex: frame length mismatch")
)

// Pipeline and source errors.
var (
	ErrPipelineStopped  = errors.New("cortex: pipeline stopped")
	ErrSourceNotStarted = errors.New("cortex: source not started")
	ErrConfigInvalid    = errors.New("cortex: invalid configuration")
)
