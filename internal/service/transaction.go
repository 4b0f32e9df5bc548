package service

import (
	"context"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/repository"
)

const maxPageSize = 200

type transactionService struct {
	txRepo repository.TransactionRepository
}

func NewTransactionService(txRepo repository.TransactionRepository) TransactionService {
	return &transactionService{txRepo: txRepo}
}

func (s *transactionService) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, 0, domain.Validationf("unknown transaction type %q", filter.Kind)
	}
	return s.txRepo.List(ctx, filter)
}

func (s *transactionService) Get(ctx context.Context, companyID, id int32) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return tx, nil
}
