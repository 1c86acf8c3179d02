package notify

import (
	"context"
	"sort"

	"github.com/nhle/gamewatch/internal/model"
)

// Snapshot is the follow table grouped by entity, read once per pass.
// Later follows and unfollows do not change it.
type Snapshot struct {
	followers map[int64]model.Followers
	entities  []int64
}

// NewSnapshot builds a Snapshot from grouped followers. Entities without
// subscribers are left out.
func NewSnapshot(grouped map[int64]model.Followers) Snapshot {
	s := Snapshot{followers: make(map[int64]model.Followers, len(grouped))}
	for id, f := range grouped {
		if len(f.Subscribers) == 0 {
			continue
		}
		s.followers[id] = f
		s.entities = append(s.entities, id)
	}
	sort.Slice(s.entities, func(i, j int) bool { return s.entities[i] < s.entities[j] })
	return s
}

// Entities returns the followed entity ids in ascending order.
func (s Snapshot) Entities() []int64 {
	return s.entities
}

// Subscribers returns the sorted subscriber ids following entity.
func (s Snapshot) Subscribers(entity int64) []int64 {
	return s.followers[entity].Subscribers
}

// Name returns the display name stored for entity.
func (s Snapshot) Name(entity int64) string {
	return s.followers[entity].DisplayName
}

// Len is the number of followed entities.
func (s Snapshot) Len() int {
	return len(s.entities)
}

// Resolver groups the follow table by entity.
type Resolver struct {
	book *FollowBook
}

// NewResolver creates a Resolver reading from book.
func NewResolver(book *FollowBook) *Resolver {
	return &Resolver{book: book}
}

// Resolve takes the snapshot for one pass. ok is false when storage
// failed, in which case the snapshot is empty.
func (r *Resolver) Resolve(ctx context.Context) (Snapshot, bool) {
	grouped, ok := r.book.Grouped(ctx)
	return NewSnapshot(grouped), ok
}
