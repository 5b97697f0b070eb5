// Package assembler maps resolved, aligned and classified inputs into the
// final destination rows.
//
// All rows built in one run share the Clock captured at the start of the
// run, so every audit timestamp in a batch is identical.
package assembler

import "time"

// Clock is the batch instant.
type Clock struct {
	now time.Time
}

// NewClock captures t at second precision, the resolution of the DATETIME
// columns it ends up in.
func NewClock(t time.Time) Clock {
	return Clock{now: t.Truncate(time.Second)}
}

// Now is the created_at / updated_at value.
func (c Clock) Now() time.Time {
	return c.now
}

// Date is the fecha_registro value.
func (c Clock) Date() time.Time {
	y, m, d := c.now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.now.Location())
}
