package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"zero", 0},
		{"token", 16},
		{"password", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := MakeRandHexString(tt.size)
			require.NoError(t, err)
			assert.Len(t, s, tt.size*2)

			raw, err := hex.DecodeString(s)
			require.NoError(t, err)
			assert.Len(t, raw, tt.size)
		})
	}
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	a, err := MakeRandHexString(32)
	require.NoError(t, err)
	b, err := MakeRandHexString(32)
	require.NoError(t, err)

	if a == b {
		t.Logf("warning: two MakeRandHexString(32) results are identical; extremely unlikely")
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("hunter2")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, 7), buf)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestSentinelErrors_WrapAndMatch(t *testing.T) {
	sentinels := []error{
		ErrorNotFound,
		ErrorAlreadyExists,
		ErrorInternal,
		ErrorUnauthorized,
		ErrorValidation,
		ErrInvalidToken,
		ErrTokenExpired,
	}

	for _, s := range sentinels {
		wrapped := fmt.Errorf("layer: %w", s)
		assert.True(t, errors.Is(wrapped, s), s.Error())
		for _, other := range sentinels {
			if other != s {
				assert.False(t, errors.Is(wrapped, other), "%v must not match %v", s, other)
			}
		}
	}
}

func TestError_KindAndMessage(t *testing.T) {
	err := fmt.Errorf("service: %w", NewError(ErrorAlreadyExists, "Admin with this email already exists"))

	assert.True(t, errors.Is(err, ErrorAlreadyExists))
	assert.False(t, errors.Is(err, ErrorValidation))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Admin with this email already exists", ce.Message)
	assert.Equal(t, "service: Admin with this email already exists", err.Error())
}
