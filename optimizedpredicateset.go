package predicate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sparrowhq/predicate/internal/lang"
	"github.com/sparrowhq/predicate/internal/observability"
	"github.com/sparrowhq/predicate/internal/optimizedset"
	"github.com/sparrowhq/predicate/internal/tuning"
)

// OptimizedPredicateSet evaluates a population of predicates against a
// document using the decision-tree compiler of spec.md §4.5: shared
// subexpressions are hoisted into branches so a document touches each of
// them once, however many predicates reference it.
//
// compileAST/finalize are an explicit two-phase build: compileAST is
// idempotent and rebuilds only when the member population has changed
// since the last call; finalize may only run after a successful compile
// and is itself idempotent.
type OptimizedPredicateSet struct {
	mu      sync.RWMutex
	members map[uuid.UUID]*Predicate
	order   []uuid.UUID

	cfg tuning.Config
	obs *observability.Config

	signature string
	tree      *optimizedset.Tree
	finalized bool
}

// SetOption configures an OptimizedPredicateSet at construction time.
type SetOption func(*OptimizedPredicateSet)

// WithTuning installs a tuning.Config overriding tuning.Default().
func WithTuning(cfg tuning.Config) SetOption {
	return func(s *OptimizedPredicateSet) { s.cfg = cfg }
}

// WithSetObservability installs an observability.Config for this set's
// compile/finalize spans and metrics.
func WithSetObservability(cfg *observability.Config) SetOption {
	return func(s *OptimizedPredicateSet) { s.obs = cfg }
}

// NewOptimizedPredicateSet builds a set from an initial member list. The
// decision tree is not built until the first Evaluate/Analyze or an
// explicit CompileAST call.
func NewOptimizedPredicateSet(preds []*Predicate, opts ...SetOption) *OptimizedPredicateSet {
	s := &OptimizedPredicateSet{
		members: make(map[uuid.UUID]*Predicate),
		cfg:     tuning.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range preds {
		s.addLocked(p)
	}
	return s
}

// Add inserts pred into the set, invalidating any compiled tree.
func (s *OptimizedPredicateSet) Add(pred *Predicate) {
	if pred == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(pred)
}

func (s *OptimizedPredicateSet) addLocked(pred *Predicate) {
	if _, exists := s.members[pred.ID()]; !exists {
		s.order = append(s.order, pred.ID())
	}
	s.members[pred.ID()] = pred
}

// Update replaces members by identity, invalidating any compiled tree.
func (s *OptimizedPredicateSet) Update(preds []*Predicate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range preds {
		if p != nil {
			s.addLocked(p)
		}
	}
}

func (s *OptimizedPredicateSet) membersLocked() []*Predicate {
	out := make([]*Predicate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id])
	}
	return out
}

// populationSignature fingerprints the current member population: its ID
// set plus each member's optimized source text. Two calls produce the same
// signature iff nothing relevant to compilation has changed, which is what
// makes CompileAST idempotent.
func populationSignature(members []*Predicate) string {
	texts := make([]string, 0, len(members))
	for _, p := range members {
		if p.IsValid() {
			texts = append(texts, p.id.String()+":"+p.ast.Text())
		}
	}
	sort.Strings(texts)
	h := sha256.New()
	for _, t := range texts {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CompileAST (re)builds the decision tree if the member population has
// changed since the last successful compile, and is a no-op otherwise.
// Finalize may only be called after a successful CompileAST.
func (s *OptimizedPredicateSet) CompileAST() {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.membersLocked()
	sig := populationSignature(members)
	if s.tree != nil && sig == s.signature {
		return
	}

	tracer := s.obs.Tracer()
	_, span := tracer.StartCompile(context.Background(), len(members))
	defer span.End()

	built := make([]optimizedset.Member, 0, len(members))
	for _, p := range members {
		if p.IsValid() {
			built = append(built, optimizedset.Member{ID: p.ID(), AST: p.ast})
		}
	}
	s.tree = optimizedset.Compile(built, s.cfg)
	s.signature = sig
	s.finalized = false
}

// Finalize marks the compiled tree as finalized after a successful
// CompileAST. It releases nothing: the set keeps its members and their
// ASTs, and the tree is left as compiled. Calling it again, or before any
// CompileAST, is a no-op.
func (s *OptimizedPredicateSet) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil || s.finalized {
		return
	}
	tracer := s.obs.Tracer()
	_, span := tracer.StartFinalize(context.Background())
	defer span.End()

	optimizedset.Finalize(s.tree)
	s.finalized = true
}

// Description renders the compiled tree in the indented-line idiom shared
// with a single Predicate's Description. Returns "" if nothing has been
// compiled yet.
func (s *OptimizedPredicateSet) Description() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return ""
	}
	return optimizedset.Describe(s.tree)
}

// Evaluate compiles the tree if needed, then returns the members matching
// doc.
func (s *OptimizedPredicateSet) Evaluate(doc Document) []*Predicate {
	_, matched, _ := s.Analyze(doc)
	return matched
}

// Analyze compiles the tree if needed, evaluates it against doc, and
// returns whether any member matched, the matching members (unconditional
// matches collected along the descent first, then the arrived-at leaf's
// evaluated residuals), and
// the EvalContext used, exposing the literal captures from the branch and
// residual evaluations performed along the descent.
func (s *OptimizedPredicateSet) Analyze(doc Document) (bool, []*Predicate, *lang.EvalContext) {
	s.CompileAST()

	s.mu.RLock()
	tree := s.tree
	members := s.members
	s.mu.RUnlock()

	ctx := lang.NewEvalContext(doc, nil)
	if tree == nil {
		return false, nil, ctx
	}

	ids := optimizedset.Evaluate(tree, ctx)
	out := make([]*Predicate, 0, len(ids))
	s.mu.RLock()
	for _, id := range ids {
		if p, ok := members[id]; ok {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	s.obs.Metrics().RecordEvaluate(context.Background())
	return len(out) > 0, out, ctx
}
