package server

import (
	"git.appkode.ru/pub/go/failure"

	"rating_engine/internal/domain"
	"rating_engine/pkg/errcodes"
)

// asFailure classifies domain errors for the response layer. Not-found codes
// map to 404, internal codes stay 500, everything else is a caller mistake.
func asFailure(err error) error {
	code, ok := domain.GetCode(err)
	if !ok {
		return err
	}

	switch code {
	case errcodes.ProgramNotFound, errcodes.VersionNotFound, errcodes.TestCaseNotFound, errcodes.NotFound:
		return failure.NewNotFoundErrorFromError(err, failure.WithCode(code))
	case errcodes.InternalServerError:
		return err
	default:
		return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(code))
	}
}
