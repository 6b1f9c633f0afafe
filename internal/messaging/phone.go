// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package messaging

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const minPhoneDigits = 5

// NormalizePhone strips formatting and returns "+" followed by the digits,
// so "+1 (555) 123-4567" and "15551234567" name the same conversation.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	b.WriteByte('+')
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len()-1 < minPhoneDigits {
		return "", ErrInvalidPhone
	}
	return b.String(), nil
}

// MaskPhone keeps the last four digits for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// SignatureHeader carries the hex HMAC-SHA256 of an inbound callback body.
const SignatureHeader = "X-Signature-256"

// VerifySignature checks a callback signature. A "sha256=" prefix is accepted.
func VerifySignature(body []byte, signature, secret string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")
	return hmac.Equal([]byte(signature), []byte(Sign(body, secret)))
}

// Sign returns the signature VerifySignature expects.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
