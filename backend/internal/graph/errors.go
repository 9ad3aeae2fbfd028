package graph

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "social-graph/backend/pkg/errors"
)

const (
	codeConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"
	transientPrefix         = "Neo.TransientError."
)

// classify maps a store failure onto the engine's error taxonomy. Errors that
// already carry a kind are returned unchanged.
func classify(ctx context.Context, query string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) != "" {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewContextTimeout(query, timeout, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return apperrors.NewContextCancelled(query, err)
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if neoErr.Code == codeConstraintViolation {
			return apperrors.NewConflict(query, err)
		}
		if strings.HasPrefix(neoErr.Code, transientPrefix) {
			return apperrors.NewTransientStore(query, err)
		}
	}

	if neo4j.IsConnectivityError(err) || neo4j.IsRetryable(err) {
		return apperrors.NewTransientStore(query, err)
	}

	return apperrors.NewGraphQueryFailed(query, err)
}
