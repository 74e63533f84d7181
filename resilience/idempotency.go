package resilience

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const idempotencyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// IdempotencyKey derives a key for one logical operation. Generate it
// once per operation and send it with every retry so the receiving
// service can collapse duplicates.
//
// Format: <operationID>-<unix millis, base36>-<6 random chars>.
func IdempotencyKey(operationID string) string {
	var sb strings.Builder
	sb.WriteString(operationID)
	sb.WriteByte('-')
	sb.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 36))
	sb.WriteByte('-')
	for range 6 {
		// #nosec G404 -- uniqueness, not unpredictability, is the goal.
		sb.WriteByte(idempotencyAlphabet[rand.IntN(len(idempotencyAlphabet))])
	}
	return sb.String()
}
