package main

import (
	"context"

	"github.com/rs/zerolog/log"
)

type Events interface {
	PublishJSON(routingKey string, v any) error
}

// Service is what the transport layer talks to: reads answer from the ledger
// (through a small cache), writes go through the repository and come out the
// other side as domain events.
type Service struct {
	repo   *Repository
	events Events
	cache  *breakdownCache
}

func NewService(repo *Repository, events Events) (*Service, error) {
	cache, err := newBreakdownCache(256)
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, events: events, cache: cache}, nil
}

func (s *Service) publish(key string, v any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(key, v); err != nil {
		log.Warn().Err(err).Str("routing_key", key).Msg("publish failed")
	}
}

// GetBookInfo lists the shelves holding the book and how many copies each
// one has. Shelves at zero are never surfaced.
func (s *Service) GetBookInfo(ctx context.Context, bookID string) (map[string]int64, error) {
	if cached, ok := s.cache.get(bookID); ok {
		return cached, nil
	}
	version := s.cache.version(bookID)
	copies, err := s.repo.GetCopies(ctx, bookID)
	if err != nil {
		return nil, err
	}
	s.cache.put(bookID, version, copies)
	return copies, nil
}

func (s *Service) GetCopiesOnShelf(ctx context.Context, bookID, shelfID string) (int64, error) {
	return s.repo.GetCopiesOnShelf(ctx, bookID, shelfID)
}

// PlaceBooksOnShelf adds copies to whatever the shelf currently holds. The
// ledger itself only stores absolute counts, the addition happens here.
func (s *Service) PlaceBooksOnShelf(ctx context.Context, bookID, shelfID string, copies int64) error {
	if copies < 0 {
		return ErrInvalidArgument{Reason: "can't place less than 0 books on a shelf"}
	}
	current, err := s.repo.GetCopiesOnShelf(ctx, bookID, shelfID)
	if err != nil {
		return err
	}
	total := current + copies
	if err := s.repo.SetCopiesOnShelf(ctx, bookID, shelfID, total); err != nil {
		return err
	}
	s.cache.drop(bookID)
	s.publish(RKStockPlaced, StockPlacedPayload{BookID: bookID, ShelfID: shelfID, Copies: total})
	return nil
}

// PlaceOrder takes the request-layer shape, one entry per wanted copy, and
// folds duplicates into quantities before storing the order.
func (s *Service) PlaceOrder(ctx context.Context, bookIDs []string) (string, error) {
	books := map[string]int64{}
	for _, book := range bookIDs {
		books[book]++
	}
	orderID, err := s.repo.CreateOrder(ctx, books)
	if err != nil {
		return "", err
	}
	s.publish(RKOrderPlaced, OrderPlacedPayload{OrderID: orderID, Books: books})
	return orderID, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (map[string]int64, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) FulfilOrder(ctx context.Context, orderID string, plan []FulfilmentLine) error {
	if err := s.repo.Fulfil(ctx, orderID, plan); err != nil {
		return err
	}
	for _, ln := range plan {
		s.cache.drop(ln.BookID)
	}
	s.publish(RKOrderFulfilled, OrderFulfilledPayload{OrderID: orderID, Lines: plan})
	log.Info().Str("order", orderID).Int("lines", len(plan)).Msg("order fulfilled")
	return nil
}
