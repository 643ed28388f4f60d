package ledger

import (
	"fmt"
	"strings"
)

// Method is the lot matching policy of a queue.
type Method string

const (
	// FIFO consumes the oldest lot first.
	FIFO Method = "FIFO"
	// LIFO consumes the newest lot first.
	LIFO Method = "LIFO"
)

// DefaultLongTermDays is the holding period, in whole days, from which a lot
// qualifies as long-term.
const DefaultLongTermDays = 365

// ParseMethod parses "fifo" or "lifo", case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case FIFO, LIFO:
		return m, nil
	default:
		return "", fmt.Errorf("invalid queue method %q, expected fifo or lifo", s)
	}
}

// Config holds the matching configuration of a ledger.
type Config struct {
	Method       Method
	LongTermDays int
}

// NewConfig creates a Config with FIFO matching and a 365 day long-term
// threshold.
func NewConfig() *Config {
	return &Config{
		Method:       FIFO,
		LongTermDays: DefaultLongTermDays,
	}
}
