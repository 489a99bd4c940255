package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusValidating, true},
		{StatusPending, StatusSkipped, true},
		{StatusPending, StatusExecuting, false},
		{StatusValidating, StatusRejected, true},
		{StatusValidating, StatusExecuting, true},
		{StatusExecuting, StatusSucceeded, true},
		{StatusExecuting, StatusFailed, true},
		{StatusSucceeded, StatusFailed, false},
		{StatusSkipped, StatusValidating, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusExecuting.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusSkipped.IsTerminal())
	assert.Equal(t, "invalid", Status(99).String())
}
