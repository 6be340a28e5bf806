package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/storage"
)

type CatalogService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	DeleteProduct(ctx context.Context, callerID, productID int64) error
	DeleteCategory(ctx context.Context, callerID, categoryID int64) error
}

type catalogService struct {
	log         *slog.Logger
	userRepo    storage.UserStorage
	catalogRepo storage.CatalogStorage
}

func NewCatalogService(log *slog.Logger, userRepo storage.UserStorage, catalogRepo storage.CatalogStorage) CatalogService {
	return &catalogService{log: log, userRepo: userRepo, catalogRepo: catalogRepo}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	products, err := s.catalogRepo.ListActiveProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"

	product, err := s.catalogRepo.GetActiveProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

// requireStaff - удалять каталог могут только сотрудники
func (s *catalogService) requireStaff(ctx context.Context, op string, callerID int64) error {
	user, err := s.userRepo.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPermission)
		}
		return fmt.Errorf("%s: failed to get caller: %w", op, err)
	}
	if !user.IsStaff {
		return fmt.Errorf("%s: %w", op, ErrPermission)
	}
	return nil
}

// DeleteProduct отклоняется, пока на товар ссылаются позиции заказов
func (s *catalogService) DeleteProduct(ctx context.Context, callerID, productID int64) error {
	const op = "service.CatalogService.DeleteProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("callerID", callerID), slog.Int64("productID", productID))

	if err := s.requireStaff(ctx, op, callerID); err != nil {
		logger.Warn("product deletion rejected", slog.Any("error", err))
		return err
	}

	if err := s.catalogRepo.DeleteProduct(ctx, productID); err != nil {
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		case errors.Is(err, storage.ErrProductReferenced):
			logger.Warn("product is referenced by orders")
			return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product deleted")
	return nil
}

// DeleteCategory удаляет категорию вместе с ее товарами
func (s *catalogService) DeleteCategory(ctx context.Context, callerID, categoryID int64) error {
	const op = "service.CatalogService.DeleteCategory"
	logger := s.log.With(slog.String("op", op), slog.Int64("callerID", callerID), slog.Int64("categoryID", categoryID))

	if err := s.requireStaff(ctx, op, callerID); err != nil {
		logger.Warn("category deletion rejected", slog.Any("error", err))
		return err
	}

	if err := s.catalogRepo.DeleteCategory(ctx, categoryID); err != nil {
		switch {
		case errors.Is(err, storage.ErrCategoryNotFound):
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		case errors.Is(err, storage.ErrProductReferenced):
			logger.Warn("category has products referenced by orders")
			return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
		}
		logger.Error("failed to delete category", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("category deleted")
	return nil
}
