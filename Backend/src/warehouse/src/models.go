package main

import "time"

// Warehouse stock:
// one row per (book, shelf) pair, copies is the absolute count on that shelf.
// Orders hold the required quantity per book until fulfilled, then disappear.
type ShelfStock struct {
	BookID  string `db:"book_id"`
	ShelfID string `db:"shelf_id"`
	Copies  int64  `db:"copies"`
}

type Order struct {
	ID    string           `db:"id"`
	Books map[string]int64 // book_id -> required quantity
}

// FulfilmentLine says where removed copies come from. A plan is a list of
// lines; several lines may pull the same book from different shelves.
type FulfilmentLine struct {
	BookID  string `json:"book"`
	ShelfID string `json:"shelf"`
	Copies  int64  `json:"numberOfBooks"`
}

func nowUnix() int64 { return time.Now().Unix() }
