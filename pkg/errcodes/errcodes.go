package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	InvalidPaging       failure.ErrorCode = "InvalidPaging"

	// Rating engine codes.
	ProgramNotFound        failure.ErrorCode = "ProgramNotFound"
	VersionNotFound        failure.ErrorCode = "VersionNotFound"
	TestCaseNotFound       failure.ErrorCode = "TestCaseNotFound"
	InvalidProgramID       failure.ErrorCode = "InvalidProgramID"
	InvalidVersionStatus   failure.ErrorCode = "InvalidVersionStatus"
	InvalidStepType        failure.ErrorCode = "InvalidStepType"
	InvalidStepConfig      failure.ErrorCode = "InvalidStepConfig"
	InvalidILFTable        failure.ErrorCode = "InvalidILFTable"
	InvalidScheduleBounds  failure.ErrorCode = "InvalidScheduleBounds"
	InvalidComputeRequest  failure.ErrorCode = "InvalidComputeRequest"
	UnknownComputeType     failure.ErrorCode = "UnknownComputeType"
	PublishBlocked         failure.ErrorCode = "PublishBlocked"
	VersionAlreadyPublished failure.ErrorCode = "VersionAlreadyPublished"
	StepsHashDrift         failure.ErrorCode = "StepsHashDrift"
)
