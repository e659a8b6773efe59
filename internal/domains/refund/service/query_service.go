package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	ordermodel "storefront-backend/internal/domains/order/model"
	orderrepo "storefront-backend/internal/domains/order/repository"
	"storefront-backend/internal/domains/refund/model"
	repo "storefront-backend/internal/domains/refund/repository"
)

// =====================================================
// REFUND QUERY SERVICE IMPLEMENTATION
// =====================================================

type refundQueryService struct {
	ledgerRepo repo.LedgerRepoInterface
	orderRepo  orderrepo.OrderRepository
}

func NewRefundQueryService(ledgerRepo repo.LedgerRepoInterface, orderRepo orderrepo.OrderRepository) RefundQueryService {
	return &refundQueryService{ledgerRepo: ledgerRepo, orderRepo: orderRepo}
}

func (s *refundQueryService) ListLedger(
	ctx context.Context,
	filters model.LedgerListFilters,
	page, limit int,
) ([]model.LedgerListRow, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.ledgerRepo.ListWithDetails(ctx, filters, page, limit)
}

func (s *refundQueryService) ListOrderLedger(
	ctx context.Context,
	orderID uuid.UUID,
) ([]model.LedgerEntry, error) {
	// An unknown order is a 404, not an order with an empty ledger.
	if _, err := s.orderRepo.GetOrderByID(ctx, orderID); err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return nil, model.NewPreconditionError(model.ErrCodeOrderNotFound, err)
		}
		return nil, err
	}

	return s.ledgerRepo.ListByOrder(ctx, orderID)
}
