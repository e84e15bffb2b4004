package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danupratama/backend-kasir/internal/cache"
	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/erp"
)

// ErrSuperseded is returned when a newer search replaced this one before it
// finished. The caller should simply drop the result.
var ErrSuperseded = common.ConflictError("search superseded by a newer query")

// Service serves the product grid from the ERP backend, with cached pages so
// the cashier UI stays responsive when the backend is slow.
type Service struct {
	ERP       erp.Client
	Cache     *cache.Cache
	PageSize  int
	WarmDelay time.Duration
	Log       zerolog.Logger

	mu         sync.Mutex
	gen        uint64
	cancelPrev context.CancelFunc
}

func pageKey(start, limit int) string {
	return fmt.Sprintf("kasir:catalog:page:%d:%d", start, limit)
}

// List returns one catalog page. Pages without a search term are served from
// cache when warm.
func (s *Service) List(ctx context.Context, start, limit int) ([]erp.Product, error) {
	if limit <= 0 {
		limit = s.PageSize
	}
	var products []erp.Product
	if hit, err := s.Cache.GetJSON(ctx, pageKey(start, limit), &products); err == nil && hit {
		return products, nil
	}
	products, err := s.ERP.Products(ctx, erp.ProductQuery{Start: start, Limit: limit})
	if err != nil {
		return nil, common.ExternalError("unable to load products", err)
	}
	_ = s.Cache.SetJSON(ctx, pageKey(start, limit), products)
	return products, nil
}

// Search queries the backend for matching products. Only the most recent
// search wins: firing a new one cancels the in-flight request and any result
// that arrives late is discarded.
func (s *Service) Search(ctx context.Context, term string) ([]erp.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, 0, s.PageSize)
	}

	s.mu.Lock()
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelPrev = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	products, err := s.ERP.Products(ctx, erp.ProductQuery{Search: term, Limit: s.PageSize})

	s.mu.Lock()
	latest := gen == s.gen
	s.mu.Unlock()

	if !latest || ctx.Err() != nil {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, common.ExternalError("product search failed", err)
	}
	return products, nil
}

// Warm walks the full catalog page by page and fills the cache. Intended to
// run as a background goroutine at startup; it pauses between pages so the
// backend is not hammered.
func (s *Service) Warm(ctx context.Context) {
	start := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		products, err := s.ERP.Products(ctx, erp.ProductQuery{Start: start, Limit: s.PageSize})
		if err != nil {
			s.Log.Warn().Err(err).Int("start", start).Msg("catalog warm aborted")
			return
		}
		if len(products) == 0 {
			s.Log.Info().Int("pages", start/s.PageSize).Msg("catalog warm complete")
			return
		}
		_ = s.Cache.SetJSON(ctx, pageKey(start, s.PageSize), products)
		start += s.PageSize
		if s.WarmDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.WarmDelay):
			}
		}
	}
}
