package vault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf_UnwrapsThroughChain(t *testing.T) {
	base := opErr(CodeInsufficientBalance, "withdraw", "bob", "available 5, requested 10")
	wrapped := fmt.Errorf("handling request: %w", base)

	assert.Equal(t, CodeInsufficientBalance, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeInsufficientBalance))
	assert.False(t, IsCode(wrapped, CodeUnauthorized))
}

func TestCodeOf_ForeignError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("disk full")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestCode_Retryable(t *testing.T) {
	assert.True(t, CodeWithdrawalNotReady.Retryable())
	assert.True(t, CodeDepositsPaused.Retryable())
	assert.False(t, CodeUnauthorized.Retryable())
	assert.False(t, CodeInsufficientBalance.Retryable())
}

func TestOpError_Message(t *testing.T) {
	err := opErr(CodeUnauthorized, "upgrade", "mallory", "missing role %s", "UPGRADER_ROLE")
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
	assert.Contains(t, err.Error(), "upgrade")
	assert.Contains(t, err.Error(), "mallory")
}
