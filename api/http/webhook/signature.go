package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const signaturePrefix = "sha256="

// MessageAgeMax is the maximum age of a message accepted by the handler.
const MessageAgeMax = 10 * time.Minute

// Sign returns the expected value of the message signature header.
func Sign(secret, msgId, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msgId))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret, msgId, timestamp string, body []byte, sig string) bool {
	return hmac.Equal([]byte(Sign(secret, msgId, timestamp, body)), []byte(sig))
}

func verifyTimestamp(timestamp string, now time.Time) (ok bool) {
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err == nil {
		ok = now.Sub(t) <= MessageAgeMax
	}
	return
}
