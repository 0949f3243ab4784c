package core

import (
	"ethicure/pkg/domain"
)

type identified interface {
	EntityID() string
}

func indexOf[E identified](items []E, id string) int {
	for i := range items {
		if items[i].EntityID() == id {
			return i
		}
	}
	return -1
}

// lookup returns a pointer into items for id.
func lookup[E identified](items []E, entity domain.EntityType, id string) (*E, error) {
	i := indexOf(items, id)
	if i < 0 {
		return nil, ErrNotFound{Entity: entity, ID: id}
	}
	return &items[i], nil
}

// update applies mutate to the item with id. The id itself cannot change.
func update[E identified](items []E, entity domain.EntityType, id string, mutate func(*E)) (E, error) {
	var zero E
	item, err := lookup(items, entity, id)
	if err != nil {
		return zero, err
	}
	working := *item
	if mutate != nil {
		mutate(&working)
	}
	if working.EntityID() != id {
		return zero, domain.FieldErrors{"id": "The id cannot be changed."}
	}
	*item = working
	return working, nil
}

// remove drops the item with id.
func remove[E identified](items []E, entity domain.EntityType, id string) ([]E, error) {
	i := indexOf(items, id)
	if i < 0 {
		return items, ErrNotFound{Entity: entity, ID: id}
	}
	out := make([]E, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), nil
}

// filter keeps the items for which keep returns true.
func filter[E any](items []E, keep func(E) bool) []E {
	if items == nil {
		return nil
	}
	out := make([]E, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func count[E any](items []E, match func(E) bool) int {
	n := 0
	for _, it := range items {
		if match(it) {
			n++
		}
	}
	return n
}
