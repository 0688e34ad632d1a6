package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// RecoveryInterceptor turns a panicking operation into a logged no-op
func RecoveryInterceptor(logger *zap.Logger) Interceptor {
	return func(
		ctx context.Context,
		info *OperationInfo,
		handler Handler,
	) (outcome Outcome, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("operation", info.Operation),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				outcome = OutcomePanic
				err = fmt.Errorf("panic in %s: %v", info.Operation, r)
			}
		}()

		return handler(ctx)
	}
}
