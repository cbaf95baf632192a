package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(50)

	tests := []struct {
		name string
		kind OperationType
		role EntryRole
		want decimal.Decimal
	}{
		{"deposit credits the owner", OperationDeposit, RoleOwner, amount},
		{"withdraw debits the owner", OperationWithdraw, RoleOwner, amount.Neg()},
		{"transfer debits the sender", OperationTransfer, RoleSender, amount.Neg()},
		{"transfer credits the receiver", OperationTransfer, RoleReceiver, amount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SignedAmount(tt.kind, tt.role, amount)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestOperationTypeValid(t *testing.T) {
	assert.True(t, OperationDeposit.Valid())
	assert.True(t, OperationWithdraw.Valid())
	assert.True(t, OperationTransfer.Valid())
	assert.False(t, OperationType("loan").Valid())
	assert.False(t, OperationType("").Valid())
}
