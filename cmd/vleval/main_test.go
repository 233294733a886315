package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegressionGateError(t *testing.T) {
	err := &RegressionGateError{
		Message: "regression check failed: critical severity across 2 tasks",
		Code:    ExitError,
	}
	assert.Equal(t, "regression check failed: critical severity across 2 tasks", err.Error())
}

func TestErrorTypeDetection(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		isGate   bool
	}{
		{
			name:     "gate error carries its code",
			err:      &RegressionGateError{Message: "warn", Code: ExitWarn},
			wantCode: ExitWarn,
			isGate:   true,
		},
		{
			name:   "regular error",
			err:    errors.New("config error"),
			isGate: false,
		},
		{
			name:     "wrapped gate error",
			err:      fmt.Errorf("check: %w", &RegressionGateError{Message: "fail", Code: ExitError}),
			wantCode: ExitError,
			isGate:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gateErr *RegressionGateError
			got := errors.As(tt.err, &gateErr)
			assert.Equal(t, tt.isGate, got)
			if tt.isGate {
				assert.Equal(t, tt.wantCode, gateErr.Code)
			}
		})
	}
}
