package consts

import "errors"

var (
	ErrMissingTransport  = errors.New("missing message transport configuration")
	ErrMissingCronSecret = errors.New("cron secret not configured")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLedgerUnavailable = errors.New("nudge ledger unavailable")
	ErrRunInProgress     = errors.New("a nudge run is already in progress")
)
