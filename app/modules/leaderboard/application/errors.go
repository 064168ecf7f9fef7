package leaderboardservice

import (
	"errors"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
)

// isFailure reports whether err is a domain failure rather than an
// infrastructure error.
func isFailure(err error) bool {
	return errors.Is(err, sessiondomain.ErrInvalidInput) ||
		errors.Is(err, sessiondomain.ErrInconsistent) ||
		errors.Is(err, ledgerdb.ErrNotFound)
}

func classify[S any](out S, err error) (results.OperationResult[S, error], error) {
	if err != nil {
		if isFailure(err) {
			return results.FailureResult[S, error](err), nil
		}
		return results.OperationResult[S, error]{}, err
	}
	return results.SuccessResult[S, error](out), nil
}
