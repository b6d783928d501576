// Package resolve awaits every pending computation inside an arbitrary tree of
// values and returns a tree of the same shape holding the resolved values.
package resolve

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Node is an element of a tree handed to Resolve. It is one of Value, List, Map or Pending.
type Node interface {
	node()
}

// Value is a plain leaf, returned as is
type Value struct {
	V any
}

// List is an ordered sequence of nodes; it resolves to []any
type List []Node

// Map is a keyed collection of nodes; it resolves to map[string]any
type Map map[string]Node

// Pending is a computation whose result replaces it in the resolved tree
type Pending func(ctx context.Context) (any, error)

func (Value) node()   {}
func (List) node()    {}
func (Map) node()     {}
func (Pending) node() {}

// FailurePolicy decides what happens when a pending computation fails.
// Returning nil drops the leaf from its parent; returning an error aborts the
// whole resolution with that error.
type FailurePolicy interface {
	OnFailure(err error) error
}

// FailurePolicyFunc adapts a function to FailurePolicy
type FailurePolicyFunc func(err error) error

// OnFailure calls f(err)
func (f FailurePolicyFunc) OnFailure(err error) error { return f(err) }

// IgnoreFailures drops failed leaves and logs each failure at warning level
func IgnoreFailures(log zerolog.Logger) FailurePolicy {
	return FailurePolicyFunc(func(err error) error {
		log.Warn().Err(err).Msg("Pending value failed, dropping it")
		return nil
	})
}

// PropagateFailures aborts resolution on the first failure
func PropagateFailures() FailurePolicy {
	return FailurePolicyFunc(func(err error) error { return err })
}

// Resolver resolves trees with a given failure policy and concurrency limit
type Resolver struct {
	policy FailurePolicy
	limit  int
}

// New creates a Resolver. A limit <= 0 runs every pending computation at once.
func New(policy FailurePolicy, limit int) *Resolver {
	if policy == nil {
		policy = PropagateFailures()
	}
	return &Resolver{policy: policy, limit: limit}
}

// slot holds the outcome of one pending computation
type slot struct {
	fn    Pending
	value any
	ok    bool
}

// plan mirrors the input tree with pending leaves replaced by slots
type plan struct {
	value any
	slot  *slot
	list  []*plan
	keys  []string
	items map[string]*plan
}

// Resolve walks n, runs every pending computation concurrently and returns the
// resolved tree. Lists become []any and maps become map[string]any.
func (r *Resolver) Resolve(ctx context.Context, n Node) (any, error) {
	var slots []*slot
	root, err := build(n, &slots)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}

	// failed carries the first propagated failure so Resolve can return
	// without waiting for the remaining computations
	failed := make(chan error, 1)
	done := make(chan error, 1)
	go func() {
		for _, s := range slots {
			s := s
			g.Go(func() error {
				var v any
				err := gctx.Err()
				if err == nil {
					v, err = s.fn(gctx)
				}
				if err != nil {
					if perr := r.policy.OnFailure(err); perr != nil {
						select {
						case failed <- perr:
						default:
						}
						return perr
					}
					return nil
				}
				s.value, s.ok = v, true
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-failed:
		return nil, err
	case err := <-done:
		if err != nil {
			return nil, err
		}
	}

	v, _ := root.materialize()
	return v, nil
}

// Resolve is a convenience wrapper around New(policy, 0).Resolve
func Resolve(ctx context.Context, n Node, policy FailurePolicy) (any, error) {
	return New(policy, 0).Resolve(ctx, n)
}

func build(n Node, slots *[]*slot) (*plan, error) {
	switch t := n.(type) {
	case nil:
		return &plan{}, nil
	case Value:
		return &plan{value: t.V}, nil
	case Pending:
		s := &slot{fn: t}
		*slots = append(*slots, s)
		return &plan{slot: s}, nil
	case List:
		p := &plan{list: make([]*plan, 0, len(t))}
		for _, child := range t {
			cp, err := build(child, slots)
			if err != nil {
				return nil, err
			}
			p.list = append(p.list, cp)
		}
		if p.list == nil {
			p.list = []*plan{}
		}
		return p, nil
	case Map:
		p := &plan{keys: make([]string, 0, len(t)), items: make(map[string]*plan, len(t))}
		for k, child := range t {
			cp, err := build(child, slots)
			if err != nil {
				return nil, err
			}
			p.keys = append(p.keys, k)
			p.items[k] = cp
		}
		return p, nil
	default:
		return nil, fmt.Errorf("resolve: unsupported node type %T", n)
	}
}

// materialize returns the resolved value and false when the node is a failed leaf
func (p *plan) materialize() (any, bool) {
	switch {
	case p.slot != nil:
		return p.slot.value, p.slot.ok
	case p.list != nil:
		out := make([]any, 0, len(p.list))
		for _, child := range p.list {
			if v, ok := child.materialize(); ok {
				out = append(out, v)
			}
		}
		return out, true
	case p.items != nil:
		out := make(map[string]any, len(p.items))
		for _, k := range p.keys {
			if v, ok := p.items[k].materialize(); ok {
				out[k] = v
			}
		}
		return out, true
	default:
		return p.value, true
	}
}
