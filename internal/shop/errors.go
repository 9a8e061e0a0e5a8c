package shop

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5/pgconn"
	"net"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrReferential = errors.New("referential integrity violation")
	ErrNotFound    = errors.New("not found")
	ErrConstraint  = errors.New("constraint violation")
	ErrConnection  = errors.New("storage unreachable")
	ErrTimeout     = errors.New("statement timed out")
)

// SQLSTATE codes the store reacts to.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
	codeStringTooLong       = "22001"
	codeBadEncoding         = "22021"
	codeUntranslatableChar  = "22P05"
	codeQueryCanceled       = "57014"
)

// classify maps a driver error onto one of the error kinds above. The driver
// error stays in the chain so callers can still inspect it.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrValidation, ErrReferential, ErrNotFound, ErrConstraint, ErrConnection, ErrTimeout} {
		if errors.Is(err, kind) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s: %w", ErrReferential, pgErr.ConstraintName, err)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s: %w", ErrConstraint, pgErr.ConstraintName, err)
		case codeCheckViolation, codeNumericOutOfRange, codeStringTooLong, codeBadEncoding, codeUntranslatableChar:
			return fmt.Errorf("%w: %w", ErrValidation, err)
		case codeQueryCanceled:
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
