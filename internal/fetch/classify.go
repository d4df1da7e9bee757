package fetch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"caddvault/internal/domain"
)

// Classify maps a raw store/driver error onto the application's error
// taxonomy. This is the single classification point: everything above the
// orchestrator only ever sees the classified form. Context cancellation is
// passed through untouched since it means the caller already moved on.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	// Already classified (store-level not-found wrapping, validation errors).
	for _, kind := range []error{
		domain.ErrTransport, domain.ErrTimeout, domain.ErrAuth,
		domain.ErrValidation, domain.ErrNotFound,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %w", classifySQLState(pgErr.Code), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	// Unknown failures are treated as transport so they stay retryable.
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}

// classifySQLState buckets a Postgres SQLSTATE into the taxonomy.
func classifySQLState(code string) error {
	switch {
	case strings.HasPrefix(code, "28"), code == "42501":
		// invalid authorization / insufficient privilege (row-level security)
		return domain.ErrAuth
	case strings.HasPrefix(code, "22"), strings.HasPrefix(code, "23"),
		code == "42601", code == "42703", code == "42883":
		// bad data, constraint violation, malformed statement
		return domain.ErrValidation
	case code == "P0002", code == "02000":
		return domain.ErrNotFound
	case code == "57014":
		// query_canceled, typically a statement timeout
		return domain.ErrTimeout
	default:
		return domain.ErrTransport
	}
}
