package main

import "fmt"

// Every validation failure has its own type so callers can branch with
// errors.As and map them to different responses.

type ErrInvalidArgument struct{ Reason string }

func (e ErrInvalidArgument) Error() string { return e.Reason }

type ErrOrderNotFound struct{ OrderID string }

func (e ErrOrderNotFound) Error() string {
	return fmt.Sprintf("no such order %q", e.OrderID)
}

type ErrForeignBook struct {
	OrderID string
	BookID  string
}

func (e ErrForeignBook) Error() string {
	return fmt.Sprintf("book %q is not part of order %q", e.BookID, e.OrderID)
}

type ErrQuantityMismatch struct {
	BookID string
	Want   int64 // quantity the order requires
	Got    int64 // quantity the plan removes
}

func (e ErrQuantityMismatch) Error() string {
	return fmt.Sprintf("order needs %d copies of %q, plan removes %d", e.Want, e.BookID, e.Got)
}

type ErrInsufficientStock struct {
	BookID  string
	ShelfID string
	Want    int64
	Avail   int64
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("shelf %q holds %d copies of %q, plan removes %d", e.ShelfID, e.Avail, e.BookID, e.Want)
}
