package app

// idGenerator issues task ids from the clock's Unix milliseconds,
// bumped so that every id is strictly greater than the previous one.
type idGenerator struct {
	clock Clock
	last  int64
}

func newIDGenerator(clock Clock, floor int64) *idGenerator {
	return &idGenerator{clock: clock, last: floor}
}

func (g *idGenerator) Next() int64 {
	id := g.clock.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
