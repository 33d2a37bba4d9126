package repository

import "errors"

var (
	ErrEmailNotFound      = errors.New("email not found")
	ErrFolderNotFound     = errors.New("folder not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidInput       = errors.New("invalid input parameters")
)
