package application

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturecrest/angelnet/internal/deal/domain"
	"github.com/venturecrest/angelnet/pkg/cache"
)

// memListingCache 模拟 RedisCache 的 JSON 序列化往返
type memListingCache struct {
	entries map[string][]byte
}

func newMemListingCache() *memListingCache {
	return &memListingCache{entries: map[string][]byte{}}
}

func (c *memListingCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memListingCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memListingCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

type countingDealRepo struct {
	fakeDealRepo
	listCalls int
}

func (r *countingDealRepo) List(ctx context.Context, statuses []domain.DealStatus, limit, offset int) ([]*domain.Deal, int64, error) {
	r.listCalls++
	return r.fakeDealRepo.List(ctx, statuses, limit, offset)
}

func newQueryFixture(liveDeals int) (*DealQueryService, *countingDealRepo, *memListingCache) {
	repo := &countingDealRepo{fakeDealRepo: fakeDealRepo{deals: map[string]*domain.Deal{}}}
	for i := 0; i < liveDeals; i++ {
		deal := &domain.Deal{
			DealID:      fmt.Sprintf("deal_%03d", i),
			CompanyName: fmt.Sprintf("Startup %d", i),
			Status:      domain.DealStatusLive,
		}
		repo.deals[deal.DealID] = deal
	}
	memCache := newMemListingCache()
	svc := NewDealQueryService(repo, &fakeCommitmentRepo{commitments: map[string]*domain.DealCommitment{}}, memCache)
	return svc, repo, memCache
}

func TestListOpenDealsPaginationTotals(t *testing.T) {
	svc, repo, _ := newQueryFixture(30)
	ctx := context.Background()

	deals, p, err := svc.ListOpenDeals(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, deals, 20)
	assert.Equal(t, int64(30), p.Total)
	assert.Equal(t, int64(2), p.Pages)
	assert.Equal(t, 1, repo.listCalls)

	// 缓存命中：totals 不得缩水成单页
	deals, p, err = svc.ListOpenDeals(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, deals, 20)
	assert.Equal(t, int64(30), p.Total)
	assert.Equal(t, int64(2), p.Pages)
	assert.Equal(t, 1, repo.listCalls)

	deals, p, err = svc.ListOpenDeals(ctx, 2, 20)
	require.NoError(t, err)
	assert.Len(t, deals, 10)
	assert.Equal(t, int64(30), p.Total)
	assert.Equal(t, 1, repo.listCalls)
}

func TestListOpenDealsCacheSurvivesPageSizeChange(t *testing.T) {
	svc, repo, _ := newQueryFixture(30)
	ctx := context.Background()

	deals, _, err := svc.ListOpenDeals(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, deals, 5)

	// 小页缓存后的大页请求仍要拿满一页
	deals, p, err := svc.ListOpenDeals(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, deals, 20)
	assert.Equal(t, int64(30), p.Total)
	assert.Equal(t, 1, repo.listCalls)
}

func TestListOpenDealsPageBeyondEnd(t *testing.T) {
	svc, _, _ := newQueryFixture(7)

	deals, p, err := svc.ListOpenDeals(context.Background(), 4, 5)
	require.NoError(t, err)
	assert.Empty(t, deals)
	assert.Equal(t, int64(7), p.Total)
	assert.Equal(t, int64(2), p.Pages)
}

func TestListOpenDealsCacheInvalidation(t *testing.T) {
	svc, repo, memCache := newQueryFixture(3)
	ctx := context.Background()

	_, _, err := svc.ListOpenDeals(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)

	// 命令侧状态变更后整键失效，下一次读回源
	require.NoError(t, memCache.Delete(ctx, "deals:open"))

	deals, _, err := svc.ListOpenDeals(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, deals, 3)
	assert.Equal(t, 2, repo.listCalls)
}
