package history

// accountant tracks the cumulative byte cost of retained commands plus
// snapshots as a single running total. The total is updated incrementally
// on every add and release; it is only zeroed wholesale on Clear.
type accountant struct {
	total int64
}

// Add charges n bytes.
func (a *accountant) Add(n int64) {
	a.total += n
}

// Release refunds n bytes, clamping at zero so a footprint that shrank
// between add and release cannot drive the total negative.
func (a *accountant) Release(n int64) {
	a.total -= n
	if a.total < 0 {
		a.total = 0
	}
}

// Total returns the running byte total.
func (a *accountant) Total() int64 {
	return a.total
}

// Over reports whether the total exceeds max.
func (a *accountant) Over(max int64) bool {
	return a.total > max
}

// Reset zeroes the total.
func (a *accountant) Reset() {
	a.total = 0
}
