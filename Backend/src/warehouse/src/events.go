package main

// Events published by the warehouse
const (
	RKStockPlaced    = "warehouse.stock.placed"
	RKOrderPlaced    = "warehouse.order.placed"
	RKOrderFulfilled = "warehouse.order.fulfilled"
)

type StockPlacedPayload struct {
	BookID  string `json:"book_id"`
	ShelfID string `json:"shelf_id"`
	Copies  int64  `json:"copies"` // absolute count after placing
}

type OrderPlacedPayload struct {
	OrderID string           `json:"order_id"`
	Books   map[string]int64 `json:"books"`
}

type OrderFulfilledPayload struct {
	OrderID string           `json:"order_id"`
	Lines   []FulfilmentLine `json:"lines"`
}

// Request/result messages for the warehouse work queues

type PlaceRequest struct {
	BookID  string `json:"book_id"`
	ShelfID string `json:"shelf_id"`
	Copies  int64  `json:"copies"` // added to the current shelf count
}

type OrderRequest struct {
	RequestID string   `json:"request_id"`
	Books     []string `json:"books"` // one entry per copy, duplicates summed
}

type OrderResult struct {
	RequestID string `json:"request_id"`
	OrderID   string `json:"order_id,omitempty"`
	State     string `json:"state"`
	Kind      string `json:"kind,omitempty"` // failure kind, machine readable
	Reason    string `json:"reason,omitempty"`
}

type FulfilRequest struct {
	OrderID string           `json:"order_id"`
	Lines   []FulfilmentLine `json:"lines"`
}

type FulfilResult struct {
	OrderID string `json:"order_id"`
	State   string `json:"state"`
	Kind    string `json:"kind,omitempty"` // failure kind, machine readable
	Reason  string `json:"reason,omitempty"`
}

const (
	StatePlaced    = "PLACED"
	StateFulfilled = "FULFILLED"
	StateFailed    = "FAILED"
)

// Failure kinds carried on results so consumers branch without parsing Reason
const (
	KindInvalidArgument   = "INVALID_ARGUMENT"
	KindOrderNotFound     = "ORDER_NOT_FOUND"
	KindForeignBook       = "FOREIGN_BOOK"
	KindQuantityMismatch  = "QUANTITY_MISMATCH"
	KindInsufficientStock = "INSUFFICIENT_STOCK"
	KindInternal          = "INTERNAL"
)
