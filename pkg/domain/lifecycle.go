package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition marks a status change the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError describes a rejected status change.
type TransitionError struct {
	Entity EntityType
	ID     string
	From   string
	To     string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot move from %q to %q", e.Entity, e.ID, e.From, e.To)
}

// Is matches ErrInvalidTransition.
func (e TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Lifecycle is a status machine over S. Setting the current status again is
// always accepted.
type Lifecycle[S ~string] struct {
	entity   EntityType
	valid    map[S]struct{}
	terminal map[S]struct{}
	edges    map[S]map[S]struct{}
}

// Edge is an allowed move between two states.
type Edge[S ~string] struct {
	From S
	To   S
}

// NewLifecycle declares a machine for entity. States with no outgoing edge
// are terminal.
func NewLifecycle[S ~string](entity EntityType, states []S, edges ...Edge[S]) Lifecycle[S] {
	l := Lifecycle[S]{
		entity:   entity,
		valid:    toSet(states...),
		terminal: toSet(states...),
		edges:    make(map[S]map[S]struct{}, len(states)),
	}
	for _, e := range edges {
		if _, ok := l.edges[e.From]; !ok {
			l.edges[e.From] = make(map[S]struct{})
		}
		l.edges[e.From][e.To] = struct{}{}
		delete(l.terminal, e.From)
	}
	return l
}

// Valid reports whether s is a declared state.
func (l Lifecycle[S]) Valid(s S) bool {
	_, ok := l.valid[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (l Lifecycle[S]) Terminal(s S) bool {
	_, ok := l.terminal[s]
	return ok
}

// Check validates moving record id from one state to another. A record whose
// stored state is not declared may move to any declared state.
func (l Lifecycle[S]) Check(id string, from, to S) error {
	if !l.Valid(to) {
		return TransitionError{Entity: l.entity, ID: id, From: string(from), To: string(to)}
	}
	if from == to || !l.Valid(from) {
		return nil
	}
	if _, ok := l.edges[from][to]; ok {
		return nil
	}
	return TransitionError{Entity: l.entity, ID: id, From: string(from), To: string(to)}
}

func toSet[S ~string](values ...S) map[S]struct{} {
	out := make(map[S]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

// Status machines enforced by the workspaces.
var (
	AppointmentLifecycle = NewLifecycle(EntityAppointment,
		[]AppointmentStatus{AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled},
		Edge[AppointmentStatus]{AppointmentPending, AppointmentConfirmed},
		Edge[AppointmentStatus]{AppointmentPending, AppointmentCompleted},
		Edge[AppointmentStatus]{AppointmentPending, AppointmentCancelled},
		Edge[AppointmentStatus]{AppointmentConfirmed, AppointmentCompleted},
		Edge[AppointmentStatus]{AppointmentConfirmed, AppointmentCancelled},
	)
	BillLifecycle = NewLifecycle(EntityBill,
		[]BillStatus{BillPending, BillPaid, BillOverdue},
		Edge[BillStatus]{BillPending, BillPaid},
		Edge[BillStatus]{BillPending, BillOverdue},
		Edge[BillStatus]{BillOverdue, BillPaid},
	)
	VisitLifecycle = NewLifecycle(EntityVisit,
		[]VisitStatus{VisitWaiting, VisitInProgress, VisitCompleted},
		Edge[VisitStatus]{VisitWaiting, VisitInProgress},
		Edge[VisitStatus]{VisitWaiting, VisitCompleted},
		Edge[VisitStatus]{VisitInProgress, VisitCompleted},
	)
	DispenseLifecycle = NewLifecycle(EntityPrescription,
		[]DispenseStatus{DispensePending, DispenseDispensed},
		Edge[DispenseStatus]{DispensePending, DispenseDispensed},
	)
)
