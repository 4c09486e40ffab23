// Package config loads and parses the on-disk topology document.
package config

import "errors"

// Document loading errors. Every one of them is fatal before boot.
var (
	ErrDocumentNotFound  = errors.New("topology document not found")
	ErrDocumentMalformed = errors.New("topology document malformed")
	ErrDocumentInvalid   = errors.New("topology document invalid")
)
