package qnnp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	cause := errors.New("arena exhausted")
	err := &Error{Status: StatusOutOfMemory, Op: "setup max pooling", Msg: "indirection buffer", Err: cause}

	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, "setup max pooling: indirection buffer: arena exhausted", err.Error())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusSuccess},
		{"typed", Errorf(StatusUninitialized, "op", "x"), StatusUninitialized},
		{"wrapped", fmt.Errorf("outer: %w", Errorf(StatusOutOfMemory, "op", "x")), StatusOutOfMemory},
		{"sentinel", ErrOutOfMemory, StatusOutOfMemory},
		{"foreign", errors.New("boom"), StatusInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "uninitialized", StatusUninitialized.String())
	assert.Equal(t, "invalid parameter", StatusInvalidParameter.String())
	assert.Equal(t, "out of memory", StatusOutOfMemory.String())
	assert.Equal(t, "status(42)", Status(42).String())
}
