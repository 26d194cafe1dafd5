package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test_secret"
	orderID := "order_MkWa2xB7"
	paymentID := "pay_MkWbQ9Lz"

	valid := sign(secret, orderID, paymentID)

	tests := []struct {
		name      string
		secret    string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{"valid signature", secret, orderID, paymentID, valid, true},
		{"wrong secret", "other_secret", orderID, paymentID, valid, false},
		{"tampered order id", secret, "order_other", paymentID, valid, false},
		{"tampered payment id", secret, orderID, "pay_other", valid, false},
		{"empty signature", secret, orderID, paymentID, "", false},
		{"truncated signature", secret, orderID, paymentID, valid[:len(valid)-2], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifySignature(tt.secret, tt.orderID, tt.paymentID, tt.signature)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifySignatureBitFlip(t *testing.T) {
	secret := "test_secret"
	valid := sign(secret, "order_1", "pay_1")

	// 任意单字符篡改都必须失败
	for i := 0; i < len(valid); i++ {
		mutated := []byte(valid)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		assert.False(t, VerifySignature(secret, "order_1", "pay_1", string(mutated)), "mutation at %d accepted", i)
	}
}
