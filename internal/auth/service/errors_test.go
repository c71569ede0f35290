package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKindMatching(t *testing.T) {
	err := unauthorized(MsgPleaseAuthenticate, ErrTokenNotFound)

	require.ErrorIs(t, err, ErrUnauthorized)
	require.NotErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, ErrTokenNotFound)

	wrapped := fmt.Errorf("refresh: %w", err)
	require.ErrorIs(t, wrapped, ErrUnauthorized)

	var se *Error
	require.True(t, errors.As(wrapped, &se))
	require.Equal(t, KindUnauthorized, se.Kind)
	require.Equal(t, MsgPleaseAuthenticate, se.Message)
}

func TestErrorString(t *testing.T) {
	require.Equal(t, "Not found", notFound(ErrUserNotFound).Error())
	require.Equal(t, MsgPleaseAuthenticate, unauthorized(MsgPleaseAuthenticate, ErrExpiredToken).Error())
	require.Equal(t, "unauthorized", (&Error{Kind: KindUnauthorized, Err: ErrTokenNotFound}).Error())
	require.Equal(t, "code is required", validation("code is required").Error())
	require.Equal(t, "internal", (&Error{}).Error())
	require.Equal(t, "not_found", KindNotFound.String())
}
