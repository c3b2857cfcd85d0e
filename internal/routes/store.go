package routes

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/golang/geo/r2"
)

// Store holds the ordered set of routes being edited. It is the only owner
// of Route lifetimes; the analytics pipeline reads point-in-time snapshots
// and never mutates routes.
//
// Every mutation bumps a monotonically increasing revision counter. The
// revision feeds the Fingerprint used by the pipeline caches, replacing
// any reliance on object identity for change detection.
type Store struct {
	mu       sync.Mutex
	routes   []*Route
	nextID   int
	revision uint64
}

// NewStore returns an empty route store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Fingerprint summarises the current state of the route set: the revision
// counter plus a hash over route IDs and point counts. Two fingerprints
// compare equal exactly when no mutation happened between them, which is
// what the embedding cache keys on.
type Fingerprint struct {
	Revision uint64
	Routes   int
	Hash     uint64
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("rev=%d routes=%d hash=%016x", f.Revision, f.Routes, f.Hash)
}

// NewRoute creates an empty route and returns its ID.
func (s *Store) NewRoute() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.routes = append(s.routes, &Route{ID: id})
	s.revision++
	return id
}

// AddRoute creates a route pre-populated with points and returns its ID.
func (s *Store) AddRoute(points []r2.Point) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	pts := make([]r2.Point, len(points))
	copy(pts, points)
	s.routes = append(s.routes, &Route{ID: id, Points: pts})
	s.revision++
	return id
}

// AppendPoint adds a point to the end of a route.
func (s *Store) AppendPoint(id int, p r2.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, err := s.find(id)
	if err != nil {
		return err
	}
	rt.Points = append(rt.Points, p)
	s.revision++
	return nil
}

// InsertPoint inserts a point at the given index within a route.
func (s *Store) InsertPoint(id, idx int, p r2.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, err := s.find(id)
	if err != nil {
		return err
	}
	if idx < 0 || idx > len(rt.Points) {
		return fmt.Errorf("insert index %d out of range for route %d (%d points)", idx, id, len(rt.Points))
	}
	rt.Points = append(rt.Points, r2.Point{})
	copy(rt.Points[idx+1:], rt.Points[idx:])
	rt.Points[idx] = p
	s.revision++
	return nil
}

// MovePoint replaces the point at the given index.
func (s *Store) MovePoint(id, idx int, p r2.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, err := s.find(id)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(rt.Points) {
		return fmt.Errorf("point index %d out of range for route %d (%d points)", idx, id, len(rt.Points))
	}
	rt.Points[idx] = p
	s.revision++
	return nil
}

// RemovePoint removes the point at the given index. Removing the last
// remaining point removes the route itself, matching editor semantics.
func (s *Store) RemovePoint(id, idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, err := s.find(id)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(rt.Points) {
		return fmt.Errorf("point index %d out of range for route %d (%d points)", idx, id, len(rt.Points))
	}
	rt.Points = append(rt.Points[:idx], rt.Points[idx+1:]...)
	if len(rt.Points) == 0 {
		s.removeRouteLocked(id)
	}
	s.revision++
	return nil
}

// UndoLastPoint removes the most recently added point of a route.
func (s *Store) UndoLastPoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, err := s.find(id)
	if err != nil {
		return err
	}
	if len(rt.Points) == 0 {
		return fmt.Errorf("route %d has no points to remove", id)
	}
	rt.Points = rt.Points[:len(rt.Points)-1]
	if len(rt.Points) == 0 {
		s.removeRouteLocked(id)
	}
	s.revision++
	return nil
}

// RemoveRoute deletes a route entirely.
func (s *Store) RemoveRoute(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.find(id); err != nil {
		return err
	}
	s.removeRouteLocked(id)
	s.revision++
	return nil
}

// Clear removes all routes. IDs are not reused afterwards.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes = nil
	s.revision++
}

// Len returns the number of routes, including routes still too short to
// survive feature extraction.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.routes)
}

// Revision returns the mutation counter.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Snapshot returns a deep copy of all routes in creation order. The copy
// is stable for the duration of a pipeline computation regardless of
// concurrent edits.
func (s *Store) Snapshot() []Route {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Route, len(s.routes))
	for i, rt := range s.routes {
		out[i] = rt.clone()
	}
	return out
}

// Fingerprint computes the current route-set fingerprint.
func (s *Store) Fingerprint() Fingerprint {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := fnv.New64a()
	var buf [8]byte
	write := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	for _, rt := range s.routes {
		write(uint64(rt.ID))
		write(uint64(len(rt.Points)))
	}

	return Fingerprint{
		Revision: s.revision,
		Routes:   len(s.routes),
		Hash:     h.Sum64(),
	}
}

// Summaries returns one display line per route, in creation order.
func (s *Store) Summaries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.routes))
	for i, rt := range s.routes {
		out[i] = rt.Summary()
	}
	return out
}

func (s *Store) find(id int) (*Route, error) {
	for _, rt := range s.routes {
		if rt.ID == id {
			return rt, nil
		}
	}
	return nil, fmt.Errorf("no route with id %d", id)
}

func (s *Store) removeRouteLocked(id int) {
	for i, rt := range s.routes {
		if rt.ID == id {
			s.routes = append(s.routes[:i], s.routes[i+1:]...)
			return
		}
	}
}
