package core

import (
	"math"
	"strconv"
)

// identityCounter hands out sequential numeric task identities. It only ever
// moves forward: observing existing identities can raise it, never lower it.
type identityCounter struct {
	next int
}

// newIdentityCounter creates a counter whose first identity is start.
// Values below 1 start the counter at 1.
func newIdentityCounter(start int) *identityCounter {
	if start < 1 {
		start = 1
	}
	return &identityCounter{next: start}
}

// Next returns the current counter value as text and advances the counter.
func (c *identityCounter) Next() string {
	id := strconv.Itoa(c.next)
	c.next++
	return id
}

// Peek returns the value the next call to Next will hand out.
func (c *identityCounter) Peek() int {
	return c.next
}

// Observe raises the counter above the integer value of every id that
// parses as one. Ids without a leading integer are ignored, and so are ids
// at or beyond math.MaxInt since no counter value can exceed them.
func (c *identityCounter) Observe(ids ...string) {
	for _, id := range ids {
		n, ok := leadingInt(id)
		if !ok || n == math.MaxInt {
			continue
		}
		if n >= c.next {
			c.next = n + 1
		}
	}
}

// leadingInt parses the integer prefix of s: optional surrounding
// whitespace, an optional sign, then at least one digit. Trailing text after
// the digits is ignored ("12abc" is 12).
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	return n, true
}
