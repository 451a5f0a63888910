package middleware

import (
	"context"
	"errors"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var domainStatus = []struct {
	err    error
	status errutil.CoreStatus
}{
	{domain.ErrUnauthorized, errutil.StatusUnauthorized},
	{domain.ErrRewardNotFound, errutil.StatusNotFound},
	{domain.ErrRuleNotFound, errutil.StatusNotFound},
	{domain.ErrContractNotFound, errutil.StatusNotFound},
	{domain.ErrUserNotFound, errutil.StatusNotFound},
	{domain.ErrRewardAlreadyClaimed, errutil.StatusConflict},
	{domain.ErrRewardExpired, errutil.StatusConflict},
	{domain.ErrOperationNotAllowed, errutil.StatusUnprocessableEntity},
	{domain.ErrInvalidAmount, errutil.StatusValidationFailed},
	{domain.ErrInvalidConfiguration, errutil.StatusValidationFailed},
	{domain.ErrInvalidAddress, errutil.StatusValidationFailed},
	{domain.ErrInvalidMessage, errutil.StatusBadRequest},
	{domain.ErrSystem, errutil.StatusInternal},
	{context.Canceled, errutil.StatusClientClosedRequest},
	{context.DeadlineExceeded, errutil.StatusTimeout},
}

// ToBaseError classifies err. Internal causes are not echoed back to the client.
func ToBaseError(err error) errutil.BaseError {
	var be errutil.BaseError
	if errors.As(err, &be) {
		return be
	}
	for _, m := range domainStatus {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.status == errutil.StatusInternal {
			return errutil.BaseError{Code: m.status, Message: "internal error"}
		}
		return errutil.BaseError{Code: m.status, Message: err.Error()}
	}
	return errutil.BaseError{Code: errutil.StatusInternal, Message: "internal error"}
}

// Error renders the last handler error as the errutil JSON envelope.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		be := ToBaseError(last.Err)
		if be.Code == errutil.StatusInternal {
			zap.L().Error("request failed",
				zap.String("path", c.FullPath()),
				zap.Error(last.Err),
			)
		}
		c.AbortWithStatusJSON(be.Code.HTTPStatus(), be.JSON())
	}
}

// ErrorInterceptor classifies handler errors the same way Error does for HTTP.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}

		be := ToBaseError(err)
		if be.Code == errutil.StatusInternal {
			zap.L().Error("rpc failed", zap.String("method", info.FullMethod), zap.Error(err))
		}
		return resp, errutil.ToGRPCError(be)
	}
}
