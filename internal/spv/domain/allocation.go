package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

var paise = decimal.New(1, -2)

// Allocate 按承诺金额对已接受的邀约分配额度。
// 未超募时分配即承诺额；超募时按 committed × target / Σcommitted 比例分配，
// 向下取整到分，余数按承诺额从大到小逐分补齐，保证 Σ 分配 == target。
// 排序在承诺额相同时按 invitation id 升序，结果是确定性的。
func Allocate(target decimal.Decimal, accepted []*SPVInvitation) error {
	if len(accepted) == 0 {
		return ErrNoAcceptedInvitations
	}

	total := decimal.Zero
	for _, inv := range accepted {
		total = total.Add(inv.CommittedAmount)
	}

	if total.LessThanOrEqual(target) {
		for _, inv := range accepted {
			inv.AllocatedAmount = inv.CommittedAmount
		}
		return nil
	}

	ordered := make([]*SPVInvitation, len(accepted))
	copy(ordered, accepted)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CommittedAmount.Equal(ordered[j].CommittedAmount) {
			return ordered[i].CommittedAmount.GreaterThan(ordered[j].CommittedAmount)
		}
		return ordered[i].InvitationID < ordered[j].InvitationID
	})

	allocated := decimal.Zero
	for _, inv := range ordered {
		share := inv.CommittedAmount.Mul(target).Div(total).RoundDown(2)
		inv.AllocatedAmount = share
		allocated = allocated.Add(share)
	}

	// 余数以分为单位补给最大的承诺者
	remainder := target.Sub(allocated)
	for i := 0; remainder.IsPositive(); i = (i + 1) % len(ordered) {
		ordered[i].AllocatedAmount = ordered[i].AllocatedAmount.Add(paise)
		remainder = remainder.Sub(paise)
	}

	return nil
}
