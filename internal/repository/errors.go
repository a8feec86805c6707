package repository

import "errors"

// ErrNoCredit is returned by Decrement when the actor has no credit left.
var ErrNoCredit = errors.New("no credit left")
