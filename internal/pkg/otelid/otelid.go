// Package otelid converts OTLP wire identifiers and timestamps into the
// storage representation: trace and span ids become UUIDs, unix-nano
// timestamps become UTC times.
package otelid

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DecodeHex decodes a hex identifier. Surrounding whitespace is ignored and
// both cases are accepted. Odd-length input is an error.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// TraceIDToUUID maps a 16-byte OTLP trace id onto a UUID.
func TraceIDToUUID(s string) (uuid.UUID, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return uuid.Nil, err
	}
	if len(b) != 16 {
		return uuid.Nil, fmt.Errorf("trace id must be 16 bytes, got %d", len(b))
	}
	return uuid.FromBytes(b)
}

// SpanIDToUUID maps an 8-byte OTLP span id onto a UUID by left-padding with
// eight zero bytes.
func SpanIDToUUID(s string) (uuid.UUID, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return uuid.Nil, err
	}
	if len(b) != 8 {
		return uuid.Nil, fmt.Errorf("span id must be 8 bytes, got %d", len(b))
	}
	padded := make([]byte, 16)
	copy(padded[8:], b)
	return uuid.FromBytes(padded)
}

var nanosPerSecond = big.NewInt(1_000_000_000)

// ParseUnixNano parses a decimal unix-nanosecond string into a UTC time.
// Returns nil for unparseable, non-positive, or out-of-range values.
func ParseUnixNano(s string) *time.Time {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || n.Sign() <= 0 {
		return nil
	}
	secs, nanos := new(big.Int).QuoRem(n, nanosPerSecond, new(big.Int))
	if !secs.IsInt64() {
		return nil
	}
	t := time.Unix(secs.Int64(), nanos.Int64()).UTC()
	return &t
}
