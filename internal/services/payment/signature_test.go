package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Контрольный вектор снят с боевой интеграции тестового магазина Fiserv.
func TestSignHppParams_KnownVector(t *testing.T) {
	params := map[string]string{
		"chargetotal":        "100.00",
		"checkoutoption":     "classic",
		"currency":           "985",
		"hash_algorithm":     "HMACSHA256",
		"oid":                "DON-1756334028-18166",
		"responseFailURL":    "http://localhost:3000/donation/fail",
		"responseSuccessURL": "http://localhost:3000/donation/success",
		"storename":          "760995999",
		"timezone":           "Europe/Warsaw",
		"txndatetime":        "2025:08:28-00:33:48",
		"txntype":            "sale",
	}

	hash := SignHppParams(params, "j}2W3P)Lwv")
	assert.Equal(t, "Hh5GCF6AjpUBeFBquEwcKo0omqOE+LYEh+HsvGPzrqA=", hash)
}

func TestSignNotification_ExcludesHashField(t *testing.T) {
	secret := "test-secret"
	fields := map[string]string{
		"approval_code": "Y:123456",
		"oid":           "DON-1-11111",
		"status":        "APPROVED",
		"storename":     "123",
	}

	// Значения в алфавитном порядке ключей, без разделителя.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("Y:123456" + "DON-1-11111" + "APPROVED" + "123"))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, SignNotification(fields, secret))

	// Поле hash не участвует в подписи независимо от регистра.
	fields["hash"] = "whatever"
	assert.Equal(t, expected, SignNotification(fields, secret))
	delete(fields, "hash")
	fields["Hash"] = "whatever"
	assert.Equal(t, expected, SignNotification(fields, secret))
}

func TestSignNotification_SecretChangesSignature(t *testing.T) {
	fields := map[string]string{"oid": "DON-1-11111", "status": "APPROVED"}
	assert.NotEqual(t, SignNotification(fields, "secret-a"), SignNotification(fields, "secret-b"))
}

func TestTargetStatus(t *testing.T) {
	cases := []struct {
		code   string
		target string
		ok     bool
	}{
		{"APPROVED", "paid", true},
		{"SUCCESS", "paid", true},
		{"approved", "paid", true},
		{" APPROVED ", "paid", true},
		{"DECLINED", "failed", true},
		{"FAILED", "failed", true},
		{"CANCELLED", "cancelled", true},
		{"WAITING", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		target, ok := TargetStatus(tc.code)
		assert.Equal(t, tc.ok, ok, "code %q", tc.code)
		assert.Equal(t, tc.target, string(target), "code %q", tc.code)
	}
}
