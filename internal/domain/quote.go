package domain

// Quote is the locally computed estimate for a prospective rental.
// The server recomputes the price; this one is for display only.
type Quote struct {
	DayCount int
	Total    Money
}

func (q Quote) IsZero() bool {
	return q.DayCount == 0 && q.Total == 0
}
