package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
)

// Подписи Fiserv. Оба варианта — HMAC-SHA256 с секретом магазина в роли
// ключа и base64-кодированным результатом; отличается только сборка
// подписываемой строки.

// SignNotification строит подпись S2S-уведомления: значения всех полей,
// кроме самого поля hash, конкатенируются в алфавитном порядке ключей.
func SignNotification(fields map[string]string, secret string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if strings.EqualFold(k, "hash") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fields[k])
	}
	return signHMAC(sb.String(), secret)
}

// SignHppParams строит подпись платёжной формы (HPP): значения параметров
// в алфавитном порядке ключей, разделённые '|'.
func SignHppParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, params[k])
	}
	return signHMAC(strings.Join(values, "|"), secret)
}

func signHMAC(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
