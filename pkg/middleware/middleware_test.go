package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/errutil"
)

func TestToBaseError(t *testing.T) {
	cases := []struct {
		err  error
		want errutil.CoreStatus
	}{
		{fmt.Errorf("%w: reward_9", domain.ErrRewardNotFound), errutil.StatusNotFound},
		{domain.ErrUnauthorized, errutil.StatusUnauthorized},
		{domain.ErrRewardAlreadyClaimed, errutil.StatusConflict},
		{domain.ErrInvalidAmount, errutil.StatusValidationFailed},
		{domain.ErrOperationNotAllowed, errutil.StatusUnprocessableEntity},
		{domain.SystemError(errors.New("disk full")), errutil.StatusInternal},
		{errors.New("boom"), errutil.StatusInternal},
		{errutil.Conflict("dup", nil), errutil.StatusConflict},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ToBaseError(tc.err).Code, tc.err.Error())
	}

	require.NotContains(t, ToBaseError(domain.SystemError(errors.New("disk full"))).Message, "disk full")
}

func TestError_RendersEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Error())
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("%w: rule_3", domain.ErrRuleNotFound))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"code":"not_found"`)
}

func TestCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Caller())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, CallerFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(CallerHeader, "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "u1", w.Body.String())
}

func TestCallerInterceptor(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-caller", "admin"))

	var got string
	_, err := CallerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		got = CallerFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, "admin", got)
}

func TestErrorInterceptor(t *testing.T) {
	intercept := ErrorInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/incentive.v1/Execute"}
	call := func(err error) error {
		_, got := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
			return nil, err
		})
		return got
	}

	require.NoError(t, call(nil))
	require.Equal(t, codes.NotFound, status.Code(call(fmt.Errorf("%w: reward_1", domain.ErrRewardNotFound))))
	require.Equal(t, codes.FailedPrecondition, status.Code(call(domain.ErrRewardExpired)))
	require.Equal(t, codes.Unauthenticated, status.Code(call(domain.ErrUnauthorized)))
	require.Equal(t, codes.Unavailable, status.Code(call(status.Error(codes.Unavailable, "down"))))

	err := call(domain.SystemError(errors.New("disk full")))
	require.Equal(t, codes.Internal, status.Code(err))
	require.NotContains(t, err.Error(), "disk full")
}
