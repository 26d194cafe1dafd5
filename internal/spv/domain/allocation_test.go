package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inv(id string, committed string) *SPVInvitation {
	return &SPVInvitation{
		InvitationID:    id,
		Status:          InvitationAccepted,
		CommittedAmount: decimal.RequireFromString(committed),
	}
}

func sumAllocated(invs []*SPVInvitation) decimal.Decimal {
	total := decimal.Zero
	for _, i := range invs {
		total = total.Add(i.AllocatedAmount)
	}
	return total
}

func TestAllocateNoInvitations(t *testing.T) {
	err := Allocate(decimal.NewFromInt(1000000), nil)
	assert.ErrorIs(t, err, ErrNoAcceptedInvitations)
}

func TestAllocateUndersubscribed(t *testing.T) {
	invs := []*SPVInvitation{
		inv("inv_1", "300000"),
		inv("inv_2", "200000"),
	}
	require.NoError(t, Allocate(decimal.NewFromInt(1000000), invs))

	// 未超募时每人拿满承诺额
	assert.True(t, invs[0].AllocatedAmount.Equal(decimal.NewFromInt(300000)))
	assert.True(t, invs[1].AllocatedAmount.Equal(decimal.NewFromInt(200000)))
}

func TestAllocateExactlySubscribed(t *testing.T) {
	invs := []*SPVInvitation{
		inv("inv_1", "600000"),
		inv("inv_2", "400000"),
	}
	require.NoError(t, Allocate(decimal.NewFromInt(1000000), invs))
	assert.True(t, sumAllocated(invs).Equal(decimal.NewFromInt(1000000)))
	assert.True(t, invs[0].AllocatedAmount.Equal(decimal.NewFromInt(600000)))
}

func TestAllocateOversubscribedProRata(t *testing.T) {
	// 总承诺 200 万，目标 100 万，各砍半
	invs := []*SPVInvitation{
		inv("inv_1", "1200000"),
		inv("inv_2", "800000"),
	}
	require.NoError(t, Allocate(decimal.NewFromInt(1000000), invs))

	assert.True(t, invs[0].AllocatedAmount.Equal(decimal.NewFromInt(600000)), "got %s", invs[0].AllocatedAmount)
	assert.True(t, invs[1].AllocatedAmount.Equal(decimal.NewFromInt(400000)), "got %s", invs[1].AllocatedAmount)
	assert.True(t, sumAllocated(invs).Equal(decimal.NewFromInt(1000000)))
}

func TestAllocateRemainderSumsToTarget(t *testing.T) {
	// 1/3 比例产生循环小数，余数必须逐分补齐
	target := decimal.NewFromInt(100000)
	invs := []*SPVInvitation{
		inv("inv_1", "100000"),
		inv("inv_2", "100000"),
		inv("inv_3", "100000"),
	}
	require.NoError(t, Allocate(target, invs))

	assert.True(t, sumAllocated(invs).Equal(target), "sum %s != target %s", sumAllocated(invs), target)
	for _, i := range invs {
		assert.True(t, i.AllocatedAmount.LessThanOrEqual(i.CommittedAmount))
	}
	// 余数从排序靠前者开始补
	assert.True(t, invs[0].AllocatedAmount.GreaterThanOrEqual(invs[2].AllocatedAmount))
}

func TestAllocateDeterministicTieBreak(t *testing.T) {
	target := decimal.NewFromInt(100001)
	run := func() []*SPVInvitation {
		invs := []*SPVInvitation{
			inv("inv_b", "70000"),
			inv("inv_a", "70000"),
			inv("inv_c", "30000"),
		}
		require.NoError(t, Allocate(target, invs))
		return invs
	}

	first := run()
	second := run()
	for i := range first {
		assert.True(t, first[i].AllocatedAmount.Equal(second[i].AllocatedAmount),
			"allocation must be deterministic: %s vs %s", first[i].AllocatedAmount, second[i].AllocatedAmount)
	}
	assert.True(t, sumAllocated(first).Equal(target))
}

func TestAllocatePaisePrecision(t *testing.T) {
	// 非整数比例，分配额精确到分且合计等于目标
	target := decimal.RequireFromString("999999.99")
	invs := []*SPVInvitation{
		inv("inv_1", "700000"),
		inv("inv_2", "500000"),
		inv("inv_3", "300000.50"),
	}
	require.NoError(t, Allocate(target, invs))

	assert.True(t, sumAllocated(invs).Equal(target))
	for _, i := range invs {
		assert.True(t, i.AllocatedAmount.Equal(i.AllocatedAmount.Round(2)), "allocation %s not paise-aligned", i.AllocatedAmount)
	}
}
