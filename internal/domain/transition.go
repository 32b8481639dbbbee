package domain

import "fmt"

type transitions[S ~string] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (t transitions[S]) check(entity string, from, to S) error {
	if _, known := t[from]; !known {
		return StateError{Reason: fmt.Sprintf("%s has unknown status %q", entity, from)}
	}
	if !t.allows(from, to) {
		return StateError{Reason: fmt.Sprintf("%s cannot move from %s to %s", entity, from, to)}
	}
	return nil
}

func (t transitions[S]) terminal(s S) bool {
	next, known := t[s]
	return known && len(next) == 0
}
