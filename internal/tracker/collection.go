package tracker

import "slices"

// Record is anything stored in an ordered section.
type Record interface {
	GetID() string
}

// Add returns a new slice with item appended.
func Add[T Record](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, item)
}

// Find returns the record with the id and its index.
func Find[T Record](items []T, id string) (T, int, bool) {
	for i, item := range items {
		if item.GetID() == id {
			return item, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// Update returns a new slice with the record matching item's id replaced by
// item. The input is returned unchanged when no record matches.
func Update[T Record](items []T, item T) ([]T, bool) {
	_, i, ok := Find(items, item.GetID())
	if !ok {
		return items, false
	}
	out := slices.Clone(items)
	out[i] = item
	return out, true
}

// Delete returns a new slice without the record with the id.
func Delete[T Record](items []T, id string) ([]T, bool) {
	_, i, ok := Find(items, id)
	if !ok {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), true
}

// Reorder moves the element at from to to, shifting the elements between.
// Out of range indices leave the slice unchanged and report false.
func Reorder[T any](items []T, from, to int) ([]T, bool) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return items, false
	}
	out := slices.Clone(items)
	if from == to {
		return out, true
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, item)
	return out, true
}
