package errutil

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusMapping(t *testing.T) {
	require.Equal(t, http.StatusConflict, StatusConflict.HTTPStatus())
	require.Equal(t, codes.FailedPrecondition, StatusConflict.GRPCCode())
	require.Equal(t, http.StatusBadRequest, StatusValidationFailed.HTTPStatus())
	require.Equal(t, codes.InvalidArgument, StatusValidationFailed.GRPCCode())
	require.Equal(t, http.StatusInternalServerError, CoreStatus("bogus").HTTPStatus())
	require.Equal(t, codes.Unknown, CoreStatus("bogus").GRPCCode())
}

func TestBaseError(t *testing.T) {
	cause := errors.New("reward_1 claimed twice")
	err := Conflict("already claimed", cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, "[conflict] already claimed: reward_1 claimed twice", err.Error())

	body := err.(BaseError).JSON()["error"].(map[string]any)
	require.Equal(t, StatusConflict, body["code"])

	same := Conflict("duplicate", errors.New("duplicate"))
	require.Equal(t, "[conflict] duplicate", same.Error())
}

func TestToGRPCError(t *testing.T) {
	require.NoError(t, ToGRPCError(nil))
	require.Equal(t, codes.Canceled, status.Code(ToGRPCError(context.Canceled)))
	require.Equal(t, codes.FailedPrecondition, status.Code(ToGRPCError(Conflict("dup", nil))))

	err := ToGRPCError(errors.New("disk full"))
	require.Equal(t, codes.Internal, status.Code(err))
	require.NotContains(t, err.Error(), "disk full")

	passthrough := status.Error(codes.Unavailable, "down")
	require.Equal(t, passthrough, ToGRPCError(passthrough))
}
