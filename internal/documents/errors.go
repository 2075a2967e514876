package documents

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("file not found")
	ErrNotDOCX      = errors.New("only DOCX files are supported for translation analysis")
)
