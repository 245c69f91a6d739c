// Package reconcile computes and applies the changes needed to bring a
// persisted child collection in line with the collection a client sent.
package reconcile

import (
	"context"
	"fmt"

	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// Policy selects how a child collection is reconciled.
type Policy string

const (
	// PolicyMerge keeps rows whose ids survive, updates them in place,
	// deletes the rest and inserts rows without an id. Ids the collection
	// does not hold are ignored.
	PolicyMerge Policy = "merge"
	// PolicyReplaceAll deletes every persisted row and inserts every
	// incoming row. Ids change on every write.
	PolicyReplaceAll Policy = "replace"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyMerge, PolicyReplaceAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown reconcile policy %q (want %q or %q)", s, PolicyMerge, PolicyReplaceAll)
	}
}

// Child is a collection element with a database identity. A zero ChildID
// marks an element that has not been persisted yet.
type Child[T any] interface {
	ChildID() int64
	Equal(other T) bool
}

// Plan is the ordered set of writes for one collection.
type Plan[T any] struct {
	Deletes   []int64
	Updates   []T
	Inserts   []T
	Unchanged int
	// Skipped holds incoming ids that match no persisted row.
	Skipped []int64
}

// Counts summarizes a plan.
type Counts struct {
	Inserted  int
	Updated   int
	Deleted   int
	Unchanged int
	Skipped   int
}

// Counts returns how many rows each step touches.
func (p Plan[T]) Counts() Counts {
	return Counts{
		Inserted:  len(p.Inserts),
		Updated:   len(p.Updates),
		Deleted:   len(p.Deletes),
		Unchanged: p.Unchanged,
		Skipped:   len(p.Skipped),
	}
}

// Empty reports whether applying the plan would write nothing.
func (p Plan[T]) Empty() bool {
	return len(p.Deletes) == 0 && len(p.Updates) == 0 && len(p.Inserts) == 0
}

// CheckDuplicates fails with a DUPLICATE_CHILD_IDENTIFIER error when a
// non-zero id occurs more than once in incoming.
func CheckDuplicates[T Child[T]](collection string, incoming []T) error {
	seen := make(map[int64]struct{}, len(incoming))
	for _, item := range incoming {
		id := item.ChildID()
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			return apperrors.DuplicateChildID(collection, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Merge diffs incoming against persisted by id.
//
// Persisted rows missing from incoming are deleted. Incoming rows whose id
// matches a persisted row become updates, unless their content is equal, in
// which case they only count as unchanged. Incoming rows with a zero id are
// inserted. An incoming non-zero id that matches nothing persisted is
// skipped: it writes nothing and is reported in Plan.Skipped.
func Merge[T Child[T]](collection string, persisted, incoming []T) (Plan[T], error) {
	if err := CheckDuplicates(collection, incoming); err != nil {
		return Plan[T]{}, err
	}

	current := make(map[int64]T, len(persisted))
	for _, row := range persisted {
		current[row.ChildID()] = row
	}

	var plan Plan[T]
	kept := make(map[int64]struct{}, len(incoming))
	for _, item := range incoming {
		row, ok := current[item.ChildID()]
		switch {
		case item.ChildID() == 0:
			plan.Inserts = append(plan.Inserts, item)
		case !ok:
			plan.Skipped = append(plan.Skipped, item.ChildID())
		case item.Equal(row):
			kept[row.ChildID()] = struct{}{}
			plan.Unchanged++
		default:
			kept[row.ChildID()] = struct{}{}
			plan.Updates = append(plan.Updates, item)
		}
	}

	for _, row := range persisted {
		if _, ok := kept[row.ChildID()]; !ok {
			plan.Deletes = append(plan.Deletes, row.ChildID())
		}
	}
	return plan, nil
}

// ReplaceAll deletes every persisted row and inserts every incoming row.
// Incoming ids are still checked for duplicates so that a malformed request
// fails the same way under either policy.
func ReplaceAll[T Child[T]](collection string, persisted, incoming []T) (Plan[T], error) {
	if err := CheckDuplicates(collection, incoming); err != nil {
		return Plan[T]{}, err
	}

	plan := Plan[T]{Inserts: append([]T(nil), incoming...)}
	for _, row := range persisted {
		plan.Deletes = append(plan.Deletes, row.ChildID())
	}
	return plan, nil
}

// Reconcile dispatches to Merge or ReplaceAll.
func Reconcile[T Child[T]](policy Policy, collection string, persisted, incoming []T) (Plan[T], error) {
	if policy == PolicyReplaceAll {
		return ReplaceAll(collection, persisted, incoming)
	}
	return Merge(collection, persisted, incoming)
}

// Ops are the writes a Plan is applied with.
type Ops[T any] struct {
	Delete func(ctx context.Context, ids []int64) error
	Update func(ctx context.Context, item T) error
	Insert func(ctx context.Context, item T) error
}

// Apply runs the plan as deletes, then updates, then inserts, stopping at
// the first error.
func Apply[T any](ctx context.Context, plan Plan[T], ops Ops[T]) error {
	if len(plan.Deletes) > 0 {
		if err := ops.Delete(ctx, plan.Deletes); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}
	for _, item := range plan.Updates {
		if err := ops.Update(ctx, item); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}
	for _, item := range plan.Inserts {
		if err := ops.Insert(ctx, item); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return nil
}

// SetDiff returns the ids to add and remove to turn persisted into incoming.
// Duplicates in incoming are ignored. Order follows the inputs.
func SetDiff(persisted, incoming []int64) (add, remove []int64) {
	have := make(map[int64]struct{}, len(persisted))
	for _, id := range persisted {
		have[id] = struct{}{}
	}
	want := make(map[int64]struct{}, len(incoming))
	for _, id := range incoming {
		if _, dup := want[id]; dup {
			continue
		}
		want[id] = struct{}{}
		if _, ok := have[id]; !ok {
			add = append(add, id)
		}
	}
	for _, id := range persisted {
		if _, ok := want[id]; !ok {
			remove = append(remove, id)
		}
	}
	return add, remove
}
