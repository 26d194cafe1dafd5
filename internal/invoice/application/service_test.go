package application

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturecrest/angelnet/internal/invoice/domain"
	"github.com/venturecrest/angelnet/pkg/config"
	"gorm.io/gorm"
)

type fakeInvoiceRepo struct {
	byNumber  map[string]*domain.Invoice
	byPayment map[string]*domain.Invoice
	// 模拟并发占号：taken 中的编号落库时报唯一索引冲突，
	// 冲突发生后才对 NextSequence 可见，模拟并发写入方提交
	taken        map[string]bool
	takenVisible bool
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		byNumber:  map[string]*domain.Invoice{},
		byPayment: map[string]*domain.Invoice{},
		taken:     map[string]bool{},
	}
}

func (r *fakeInvoiceRepo) Save(_ context.Context, inv *domain.Invoice) error {
	if r.taken[inv.InvoiceNumber] {
		r.takenVisible = true
		return gorm.ErrDuplicatedKey
	}
	r.byNumber[inv.InvoiceNumber] = inv
	r.byPayment[inv.PaymentID] = inv
	return nil
}

func (r *fakeInvoiceRepo) GetByNumber(_ context.Context, number string) (*domain.Invoice, error) {
	return r.byNumber[number], nil
}

func (r *fakeInvoiceRepo) GetByPayment(_ context.Context, paymentID string) (*domain.Invoice, error) {
	return r.byPayment[paymentID], nil
}

func (r *fakeInvoiceRepo) NextSequence(_ context.Context, monthPrefix string) (int, error) {
	max := 0
	bump := func(number string) {
		if !strings.HasPrefix(number, monthPrefix) {
			return
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(number, monthPrefix))
		if err == nil && seq > max {
			max = seq
		}
	}
	for number := range r.byNumber {
		bump(number)
	}
	if r.takenVisible {
		for number := range r.taken {
			bump(number)
		}
	}
	return max + 1, nil
}

func (r *fakeInvoiceRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]*domain.Invoice, int64, error) {
	var out []*domain.Invoice
	for _, inv := range r.byNumber {
		if inv.BuyerUserID == userID {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) List(_ context.Context, _, _ int) ([]*domain.Invoice, int64, error) {
	var out []*domain.Invoice
	for _, inv := range r.byNumber {
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

type fakeRenderer struct {
	rendered []string
}

func (r *fakeRenderer) Render(inv *domain.Invoice, _, _, _ string) (string, error) {
	r.rendered = append(r.rendered, inv.InvoiceNumber)
	return "/tmp/invoices/" + inv.InvoiceNumber + ".pdf", nil
}

type fakePayments struct {
	payments map[string]*CompletedPayment
}

func (p *fakePayments) GetCompletedPayment(_ context.Context, paymentID string) (*CompletedPayment, error) {
	return p.payments[paymentID], nil
}

func invoiceCfg() config.InvoiceConfig {
	return config.InvoiceConfig{
		SellerName:      "VentureCrest Angel Network Pvt Ltd",
		SellerGSTIN:     "29AAACV1234F1Z5",
		SellerStateCode: "29",
		GSTRate:         18,
		OutputDir:       "/tmp/invoices",
	}
}

func newInvoiceService(t *testing.T) (*InvoiceService, *fakeInvoiceRepo, *fakeRenderer, *fakePayments) {
	t.Helper()
	repo := newFakeInvoiceRepo()
	renderer := &fakeRenderer{}
	payments := &fakePayments{payments: map[string]*CompletedPayment{}}
	svc := NewInvoiceService(repo, renderer, payments, invoiceCfg(), nil)
	return svc, repo, renderer, payments
}

func completedPayment(id string, amount int64) *CompletedPayment {
	return &CompletedPayment{
		PaymentID: id,
		UserID:    "usr_1",
		Amount:    decimal.NewFromInt(amount),
		Completed: true,
	}
}

func TestGenerateIntraStateGST(t *testing.T) {
	svc, _, renderer, payments := newInvoiceService(t)
	payments.payments["pay_1"] = completedPayment("pay_1", 100000)

	inv, err := svc.Generate(context.Background(), GenerateCommand{
		PaymentID:      "pay_1",
		BuyerName:      "Asha Rao",
		BuyerStateCode: "29",
	})
	require.NoError(t, err)

	// 同邦：18% 税额对半拆成 CGST/SGST
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(100000)))
	assert.True(t, inv.CGST.Equal(decimal.NewFromInt(9000)), "CGST %s", inv.CGST)
	assert.True(t, inv.SGST.Equal(decimal.NewFromInt(9000)), "SGST %s", inv.SGST)
	assert.True(t, inv.IGST.IsZero())
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(118000)))

	assert.NotEmpty(t, inv.InvoiceNumber)
	assert.Equal(t, "/tmp/invoices/"+inv.InvoiceNumber+".pdf", inv.PDFPath)
	assert.Equal(t, []string{inv.InvoiceNumber}, renderer.rendered)
}

func TestGenerateInterStateGST(t *testing.T) {
	svc, _, _, payments := newInvoiceService(t)
	payments.payments["pay_1"] = completedPayment("pay_1", 250000)

	inv, err := svc.Generate(context.Background(), GenerateCommand{
		PaymentID:      "pay_1",
		BuyerName:      "Rohit Khanna",
		BuyerStateCode: "27",
	})
	require.NoError(t, err)

	// 跨邦：全额走 IGST
	assert.True(t, inv.IGST.Equal(decimal.NewFromInt(45000)), "IGST %s", inv.IGST)
	assert.True(t, inv.CGST.IsZero())
	assert.True(t, inv.SGST.IsZero())
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(295000)))
}

func TestGenerateOddPaiseSplit(t *testing.T) {
	svc, _, _, payments := newInvoiceService(t)
	payments.payments["pay_1"] = &CompletedPayment{
		PaymentID: "pay_1",
		UserID:    "usr_1",
		Amount:    decimal.RequireFromString("100000.05"),
		Completed: true,
	}

	inv, err := svc.Generate(context.Background(), GenerateCommand{
		PaymentID:      "pay_1",
		BuyerName:      "Asha Rao",
		BuyerStateCode: "29",
	})
	require.NoError(t, err)

	// 税额拆半后两项合计仍等于税额，奇数派萨差额不超过一分
	gst := inv.CGST.Add(inv.SGST)
	assert.True(t, inv.Total.Equal(inv.Subtotal.Add(gst)), "total %s", inv.Total)
	assert.True(t, inv.CGST.Sub(inv.SGST).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")))
}

func TestGenerateMonthlySequence(t *testing.T) {
	svc, _, _, payments := newInvoiceService(t)

	var numbers []string
	for i := 1; i <= 3; i++ {
		id := "pay_" + strconv.Itoa(i)
		payments.payments[id] = completedPayment(id, 100000)
		inv, err := svc.Generate(context.Background(), GenerateCommand{PaymentID: id, BuyerName: "Asha Rao"})
		require.NoError(t, err)
		numbers = append(numbers, inv.InvoiceNumber)
	}

	prefix := numbers[0][:len("INV-YYYY-MM-")]
	for i, number := range numbers {
		assert.Equal(t, prefix+"0000"+strconv.Itoa(i+1), number)
	}
}

func TestGenerateRetriesOnDuplicateNumber(t *testing.T) {
	svc, repo, _, payments := newInvoiceService(t)
	payments.payments["pay_1"] = completedPayment("pay_1", 100000)

	// 1 号被并发占走，首次落库撞唯一索引后换号重试
	prefix := domain.MonthPrefix(time.Now())
	repo.taken[prefix+"00001"] = true

	inv, err := svc.Generate(context.Background(), GenerateCommand{PaymentID: "pay_1", BuyerName: "Asha Rao"})
	require.NoError(t, err)
	assert.Equal(t, prefix+"00002", inv.InvoiceNumber)
}

func TestGenerateGuards(t *testing.T) {
	svc, _, _, payments := newInvoiceService(t)

	// 支付不存在
	_, err := svc.Generate(context.Background(), GenerateCommand{PaymentID: "pay_missing"})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	// 支付未完成
	pending := completedPayment("pay_1", 100000)
	pending.Completed = false
	payments.payments["pay_1"] = pending
	_, err = svc.Generate(context.Background(), GenerateCommand{PaymentID: "pay_1"})
	assert.ErrorIs(t, err, domain.ErrPaymentNotCompleted)

	// 同一支付重复开票
	payments.payments["pay_2"] = completedPayment("pay_2", 100000)
	_, err = svc.Generate(context.Background(), GenerateCommand{PaymentID: "pay_2", BuyerName: "Asha Rao"})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), GenerateCommand{PaymentID: "pay_2", BuyerName: "Asha Rao"})
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyIssued)
}
