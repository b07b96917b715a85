package apperr

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs an error that ends one unit of work without aborting the
// surrounding batch. Structured values attached via goerr are included
// in the log record.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger := ctxlog.From(ctx)
	if goErr := goerr.Unwrap(err); goErr != nil {
		logger.Error("application error", "error", err, "values", goErr.Values())
		return
	}
	logger.Error("application error", "error", err)
}
