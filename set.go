package predicate

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SimplePredicateSet evaluates a population of predicates against a
// document by running each one independently (spec.md §6's "simple set"
// facade): no shared decision tree, no cross-predicate optimization, just
// concurrent fan-out. See internal/optimizedset for the decision-tree
// compiler used when the population is large or evaluated often enough to
// amortize shared-subexpression hoisting.
type SimplePredicateSet struct {
	mu      sync.RWMutex
	members map[uuid.UUID]*Predicate
	order   []uuid.UUID
}

// NewSimplePredicateSet builds a set from an initial member list.
func NewSimplePredicateSet(preds []*Predicate) *SimplePredicateSet {
	s := &SimplePredicateSet{members: make(map[uuid.UUID]*Predicate, len(preds))}
	for _, p := range preds {
		s.Add(p)
	}
	return s
}

// Add inserts pred into the set. Adding a predicate whose ID is already
// present replaces the existing member in place, preserving its original
// position in evaluation order.
func (s *SimplePredicateSet) Add(pred *Predicate) {
	if pred == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[pred.ID()]; !exists {
		s.order = append(s.order, pred.ID())
	}
	s.members[pred.ID()] = pred
}

// Update replaces members by identity: each pred in preds overwrites the
// existing member with the same ID (or is appended if new). Members not
// named in preds are left untouched.
func (s *SimplePredicateSet) Update(preds []*Predicate) {
	for _, p := range preds {
		s.Add(p)
	}
}

// Members returns the set's predicates in evaluation order.
func (s *SimplePredicateSet) Members() []*Predicate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Predicate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id])
	}
	return out
}

// Evaluate runs every valid member against doc concurrently, each on its
// own EvalContext per spec.md §5, and returns the matching predicates in
// evaluation order. Invalid members (Evaluate would panic on them) are
// skipped rather than failing the whole set, same as a member dropped from
// pypred's PredicateSet before it is ever added.
func (s *SimplePredicateSet) Evaluate(doc Document) []*Predicate {
	members := s.Members()
	matched := make([]bool, len(members))

	g, _ := errgroup.WithContext(context.Background())
	for i, p := range members {
		i, p := i, p
		if !p.IsValid() {
			continue
		}
		g.Go(func() error {
			matched[i] = p.Evaluate(doc)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Predicate, 0, len(members))
	for i, p := range members {
		if matched[i] {
			out = append(out, p)
		}
	}
	return out
}
