package application

import (
	"context"
	"errors"
	"time"

	"github.com/venturecrest/angelnet/internal/deal/domain"
	"github.com/venturecrest/angelnet/pkg/cache"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/utils"
)

const (
	listingCacheKey = "deals:open"
	listingCacheTTL = 60 * time.Second
)

// ListingCache 开放交易列表缓存，由 pkg/cache.RedisCache 满足
type ListingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// DealQueryService 交易与认购的读路径
type DealQueryService struct {
	deals       domain.DealRepository
	commitments domain.CommitmentRepository
	cache       ListingCache
}

func NewDealQueryService(deals domain.DealRepository, commitments domain.CommitmentRepository, c ListingCache) *DealQueryService {
	return &DealQueryService{deals: deals, commitments: commitments, cache: c}
}

func (s *DealQueryService) GetDeal(ctx context.Context, dealID string) (*domain.Deal, error) {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, domain.ErrDealNotFound
	}
	return deal, nil
}

// ListOpenDeals 列出 live/closing 交易；完整列表整体缓存，分页在内存切片
func (s *DealQueryService) ListOpenDeals(ctx context.Context, page, pageSize int) ([]*domain.Deal, *utils.Pagination, error) {
	full, err := s.openListing(ctx)
	if err != nil {
		return nil, nil, err
	}

	p := utils.NewPagination(page, pageSize, int64(len(full)))
	start := p.Offset()
	if start > len(full) {
		start = len(full)
	}
	end := start + p.Limit()
	if end > len(full) {
		end = len(full)
	}
	return full[start:end], p, nil
}

// openListing 返回全部开放交易；状态变更时由命令侧整键失效
func (s *DealQueryService) openListing(ctx context.Context) ([]*domain.Deal, error) {
	open := []domain.DealStatus{domain.DealStatusLive, domain.DealStatusClosing}

	if s.cache != nil {
		var cached []*domain.Deal
		err := s.cache.Get(ctx, listingCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn(ctx, "Deal listing cache read failed", "error", err)
		}
	}

	// Limit/Offset 传 -1，GORM 取消对应子句，拿到全量
	deals, _, err := s.deals.List(ctx, open, -1, -1)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listingCacheKey, deals, listingCacheTTL); err != nil {
			logger.Warn(ctx, "Deal listing cache write failed", "error", err)
		}
	}
	return deals, nil
}

// ListDeals 管理端按任意状态集合分页
func (s *DealQueryService) ListDeals(ctx context.Context, statuses []domain.DealStatus, page, pageSize int) ([]*domain.Deal, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	deals, total, err := s.deals.List(ctx, statuses, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return deals, utils.NewPagination(p.Page, p.PageSize, total), nil
}

func (s *DealQueryService) GetCommitment(ctx context.Context, commitmentID string) (*domain.DealCommitment, error) {
	commitment, err := s.commitments.Get(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, domain.ErrCommitmentNotFound
	}
	return commitment, nil
}

func (s *DealQueryService) ListCommitmentsByDeal(ctx context.Context, dealID string, page, pageSize int) ([]*domain.DealCommitment, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	commitments, total, err := s.commitments.ListByDeal(ctx, dealID, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return commitments, utils.NewPagination(p.Page, p.PageSize, total), nil
}

func (s *DealQueryService) ListCommitmentsByInvestor(ctx context.Context, investorID string, page, pageSize int) ([]*domain.DealCommitment, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	commitments, total, err := s.commitments.ListByInvestor(ctx, investorID, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return commitments, utils.NewPagination(p.Page, p.PageSize, total), nil
}
