package domain

const RecentGamesLimit = 10

// Registry is the singleton counter record shared by all games. NextID is
// the id the next created game receives; OldestActive is the sweep cursor:
// every id below it is known to be resolved.
type Registry struct {
	NextID       uint64 `json:"next_id"`
	OldestActive uint64 `json:"oldest_active"`
	TotalGames   uint64 `json:"total_games"`
}

func NewRegistry() Registry {
	return Registry{NextID: 1, OldestActive: 1}
}

func (r *Registry) Allocate() uint64 {
	if r.NextID == 0 {
		*r = NewRegistry()
	}
	id := r.NextID
	r.NextID++
	r.TotalGames++
	return id
}

func (r Registry) Newest() uint64 {
	if r.NextID <= 1 {
		return 0
	}
	return r.NextID - 1
}

// RecentIDs returns the last limit allocated ids in ascending order.
func (r Registry) RecentIDs(limit int) []uint64 {
	newest := r.Newest()
	if newest == 0 || limit <= 0 {
		return nil
	}
	start := uint64(1)
	if newest > uint64(limit) {
		start = newest - uint64(limit) + 1
	}
	return idRange(start, newest)
}

// ActiveWindow returns the ids from the sweep cursor to the newest game.
func (r Registry) ActiveWindow() []uint64 {
	start := r.OldestActive
	if start == 0 {
		start = 1
	}
	return idRange(start, r.Newest())
}

// Advance moves the cursor forward; it never moves back.
func (r *Registry) Advance(to uint64) {
	if to > r.NextID {
		to = r.NextID
	}
	if to > r.OldestActive {
		r.OldestActive = to
	}
}

func idRange(from, to uint64) []uint64 {
	if from > to {
		return nil
	}
	ids := make([]uint64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}
