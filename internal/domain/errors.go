package domain

import "errors"

var (
	ErrValidation     = errors.New("VALIDATION_ERROR")
	ErrMemberNotFound = errors.New("MEMBER_NOT_FOUND")
	ErrSprintNotFound = errors.New("SPRINT_NOT_FOUND")
	ErrSprintExists   = errors.New("SPRINT_EXISTS")
	ErrMemberExists   = errors.New("MEMBER_EXISTS")
	ErrConflict       = errors.New("CONFLICT")
)
