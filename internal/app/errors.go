package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrMessageEmpty     = errors.New("message content is empty")
	ErrEmptyContent     = errors.New("document contains no readable text")
	ErrDuplicateContent = errors.New("document with the same content already exists")
	ErrDocumentNotFound = errors.New("document not found")
)
