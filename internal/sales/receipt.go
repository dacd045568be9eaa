package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// makeReceiptRef builds a human-readable receipt reference:
// RCPT-YYYYMMDD-XXXXXX with a random 6-hex-char suffix. The suffix keeps
// references short enough to read over the phone; the unique index on
// sales.receipt_ref plus a retry at insert covers the rare collision.
func makeReceiptRef(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("RCPT-%s-%s", at.Format("20060102"), suffix)
}
