package util

import "errors"

var (
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCourseNotFound     = errors.New("course not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrContentNotFound    = errors.New("content item not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrModuleLocked       = errors.New("module is locked")
	ErrNotEnrolled        = errors.New("not enrolled in course")
	ErrAlreadyEnrolled    = errors.New("already enrolled in course")
	ErrStoreUnavailable   = errors.New("progress store unavailable")
	ErrNotYetGraded       = errors.New("submission not yet graded")
	ErrAssignmentClosed   = errors.New("assignment no longer accepts submissions")
	ErrInvalidModuleSeq   = errors.New("invalid module sequence")
	ErrThreadNotFound     = errors.New("discussion thread not found")
	ErrSubmissionMissing  = errors.New("submission not found")
)
