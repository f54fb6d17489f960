package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

// WarehouseServer exposes the service over the RabbitMQ work queues.
type WarehouseServer struct {
	cfg    Config
	svc    *Service
	rabbit *Rabbit
}

func NewWarehouseServer(cfg Config, svc *Service, rabbit *Rabbit) *WarehouseServer {
	return &WarehouseServer{cfg: cfg, svc: svc, rabbit: rabbit}
}

func (s *WarehouseServer) StartConsumers(ctx context.Context) error {
	if err := s.consumePlace(ctx); err != nil { return err }
	if err := s.consumeOrder(ctx); err != nil { return err }
	if err := s.consumeFulfil(ctx); err != nil { return err }
	return nil
}

func (s *WarehouseServer) consumePlace(ctx context.Context) error {
	return s.rabbit.Consume(s.cfg.QPlaceReq, "warehouse-place-worker", func(body []byte) {
		var req PlaceRequest
		if err := json.Unmarshal(body, &req); err != nil {
			log.Error().Err(err).Msg("place: invalid json")
			return
		}
		if err := s.svc.PlaceBooksOnShelf(ctx, req.BookID, req.ShelfID, req.Copies); err != nil {
			log.Error().Err(err).
				Str("book", req.BookID).Str("shelf", req.ShelfID).
				Msg("place: rejected")
			return
		}
		log.Info().Str("book", req.BookID).Str("shelf", req.ShelfID).
			Int64("copies", req.Copies).Msg("place: done")
	})
}

func (s *WarehouseServer) consumeOrder(ctx context.Context) error {
	return s.rabbit.Consume(s.cfg.QOrderReq, "warehouse-order-worker", func(body []byte) {
		var req OrderRequest
		if err := json.Unmarshal(body, &req); err != nil {
			log.Error().Err(err).Msg("order: invalid json")
			return
		}
		res := OrderResult{RequestID: req.RequestID}

		orderID, err := s.svc.PlaceOrder(ctx, req.Books)
		if err != nil {
			res.State = StateFailed
			res.Kind = failureKind(err)
			res.Reason = err.Error()
		} else {
			res.State = StatePlaced
			res.OrderID = orderID
		}
		if err := s.rabbit.PublishQueue(s.cfg.QOrderRes, res); err != nil {
			log.Error().Err(err).Msg("order: publish result failed")
		}
	})
}

func (s *WarehouseServer) consumeFulfil(ctx context.Context) error {
	return s.rabbit.Consume(s.cfg.QFulfilReq, "warehouse-fulfil-worker", func(body []byte) {
		var req FulfilRequest
		if err := json.Unmarshal(body, &req); err != nil {
			log.Error().Err(err).Msg("fulfil: invalid json")
			return
		}
		log.Info().Str("order", req.OrderID).Msg("fulfil: received")
		res := FulfilResult{OrderID: req.OrderID}

		if err := s.svc.FulfilOrder(ctx, req.OrderID, req.Lines); err != nil {
			res.State = StateFailed
			res.Kind = failureKind(err)
			res.Reason = err.Error()
		} else {
			res.State = StateFulfilled
		}
		if err := s.rabbit.PublishQueue(s.cfg.QFulfilRes, res); err != nil {
			log.Error().Err(err).Msg("fulfil: publish result failed")
		}
	})
}

// failureKind maps the typed validation failures onto the result kinds.
// Anything else is a storage or I/O fault.
func failureKind(err error) string {
	var (
		invalid      ErrInvalidArgument
		notFound     ErrOrderNotFound
		foreign      ErrForeignBook
		mismatch     ErrQuantityMismatch
		insufficient ErrInsufficientStock
	)
	switch {
	case errors.As(err, &invalid):
		return KindInvalidArgument
	case errors.As(err, &notFound):
		return KindOrderNotFound
	case errors.As(err, &foreign):
		return KindForeignBook
	case errors.As(err, &mismatch):
		return KindQuantityMismatch
	case errors.As(err, &insufficient):
		return KindInsufficientStock
	default:
		return KindInternal
	}
}
