package transform

type dateKey struct {
	date string
	hour int
}

// Caches holds the natural-key to surrogate-key lookups for one run. They
// are created at run start and discarded at run end; nothing in them
// outlives the committed state they were filled from.
type Caches struct {
	users    map[int64]uint64
	products map[int64]uint64
	dates    map[dateKey]uint64
}

func NewCaches() *Caches {
	return &Caches{
		users:    make(map[int64]uint64),
		products: make(map[int64]uint64),
		dates:    make(map[dateKey]uint64),
	}
}
