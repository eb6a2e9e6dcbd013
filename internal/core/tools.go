package core

import (
	"strings"
	"time"
)

// NowMillis returns the current Unix time in milliseconds. Created/Updated
// timestamps and tick ts_ms all use this clock.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// ValidPair reports whether s has the BASE/QUOTE shape with both legs
// non-empty, e.g. "BTC/USDT".
func ValidPair(s string) bool {
	base, quote, ok := strings.Cut(s, "/")
	return ok && base != "" && quote != ""
}
