package assemble

// idAssigner hands out verse ids: 1, 2, 3... for real verses and -1, -2,
// -3... for gap placeholders. Each counter only advances for its own kind.
type idAssigner struct {
	next int
	gap  int
}

func newIDAssigner() *idAssigner {
	return &idAssigner{next: 1, gap: -1}
}

func (a *idAssigner) assign(gap bool) int {
	if gap {
		id := a.gap
		a.gap--
		return id
	}
	id := a.next
	a.next++
	return id
}
