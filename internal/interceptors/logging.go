package interceptors

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const operationIDKey contextKey = "operation_id"

// ContextWithOperationID tags ctx with an operation id
func ContextWithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationIDFromContext returns the operation id carried by ctx, if any
func OperationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(operationIDKey).(string)
	return id, ok && id != ""
}

func LoggingInterceptor(logger *zap.Logger) Interceptor {
	return func(
		ctx context.Context,
		info *OperationInfo,
		handler Handler,
	) (Outcome, error) {
		start := time.Now()

		operationID := getOrGenerateOperationID(ctx)
		ctx = ContextWithOperationID(ctx, operationID)

		logger.Debug("store operation started",
			zap.String("operation", info.Operation),
			zap.String("operation_id", operationID),
		)

		outcome, err := handler(ctx)

		duration := time.Since(start)

		switch outcome {
		case OutcomeApplied:
			logger.Info("store operation applied",
				zap.String("operation", info.Operation),
				zap.String("operation_id", operationID),
				zap.Duration("duration", duration),
			)
		case OutcomePanic:
			logger.Error("store operation aborted",
				zap.String("operation", info.Operation),
				zap.String("operation_id", operationID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		default:
			// Rejections are expected input, not failures
			logger.Debug("store operation ignored",
				zap.String("operation", info.Operation),
				zap.String("operation_id", operationID),
				zap.Duration("duration", duration),
				zap.NamedError("reason", err),
			)
		}

		return outcome, err
	}
}

func getOrGenerateOperationID(ctx context.Context) string {
	if id, ok := OperationIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}
