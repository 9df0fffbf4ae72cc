// Package service holds the workflows that span several tables inside one
// transaction: check-in/check-out and payment recording.
package service

import (
	"errors"
	"time"

	"github.com/iliyamo/gym-membership/internal/model"
)

var (
	// ErrUnauthenticated: no caller identity was supplied.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden: the caller's role or ownership does not allow the action.
	ErrForbidden = errors.New("forbidden")
	// ErrNoUsableMembership: the caller has no active membership with
	// classes left for today.
	ErrNoUsableMembership = errors.New("no active membership with remaining classes")
	// ErrAlreadyCheckedIn: a check-in for (user, session) already exists.
	ErrAlreadyCheckedIn = errors.New("already checked in to this session")
	// ErrSessionFull: the class capacity has been reached for the session.
	ErrSessionFull = errors.New("session is full")
	// ErrAlreadyCheckedOut: check-out was already recorded.
	ErrAlreadyCheckedOut = errors.New("already checked out")
)

// clock bundles the injectable time source and the zone that decides
// which calendar day "today" is.
type clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c clock) loc() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

func (c clock) today() model.Date {
	return model.DateOf(c.now().In(c.loc()))
}
