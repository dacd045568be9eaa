package sales

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMakeReceiptRefFormat(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	ref := makeReceiptRef(at)

	assert.Regexp(t, `^RCPT-20260314-[0-9A-F]{6}$`, ref)
	assert.True(t, strings.HasPrefix(ref, "RCPT-20260314-"))
}

func TestMakeReceiptRefSuffixVaries(t *testing.T) {
	at := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[makeReceiptRef(at)] = true
	}
	assert.Greater(t, len(seen), 95, "suffixes should be effectively unique")
}
