package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// CallerHeader carries the authenticated caller address set by the gateway in front of the service.
const CallerHeader = "X-Caller"

type callerKey struct{}

func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller stored by Caller or CallerInterceptor, or "".
func CallerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(callerKey{}).(string)
	return v
}

// Caller copies the X-Caller header into the request context.
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller := strings.TrimSpace(c.GetHeader(CallerHeader)); caller != "" {
			c.Request = c.Request.WithContext(WithCaller(c.Request.Context(), caller))
		}
		c.Next()
	}
}

// CallerInterceptor copies the x-caller metadata into the request context.
func CallerInterceptor() grpc.UnaryServerInterceptor {
	key := strings.ToLower(CallerHeader)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(key); len(vals) > 0 && vals[0] != "" {
				ctx = WithCaller(ctx, strings.TrimSpace(vals[0]))
			}
		}
		return handler(ctx, req)
	}
}
