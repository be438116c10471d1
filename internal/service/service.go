package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"checkin-offers-api/internal/cache"
	"checkin-offers-api/internal/database"
	"checkin-offers-api/internal/events"
	"checkin-offers-api/internal/features"
	"checkin-offers-api/internal/logging"
	"checkin-offers-api/internal/metrics"
	"checkin-offers-api/internal/models"
	"checkin-offers-api/internal/selection"
	"checkin-offers-api/internal/tracing"
	"checkin-offers-api/internal/validation"
)

// ErrInlineDisabled is returned when inline recommendations are switched off.
var ErrInlineDisabled = errors.New("inline recommendations are disabled")

// maxImportOffers caps a single catalog import.
const maxImportOffers = 10000

// Service provides business logic for the check-in offers API.
type Service struct {
	db       *database.DB
	cache    cache.Cache
	events   *events.Manager
	features *features.Manager
	tracer   *tracing.Tracer
	cacheTTL time.Duration

	// generation changes with every catalog write. It is part of each
	// recommendation cache key, so a result computed from an older catalog
	// is never readable after the write.
	generation atomic.Uint64
}

// Options holds the collaborators of a Service. Nil fields get defaults.
type Options struct {
	Cache    cache.Cache
	Events   *events.Manager
	Features *features.Manager
	Tracer   *tracing.Tracer
	CacheTTL time.Duration
}

// NewService creates a new service instance with an in-memory cache and
// events disabled.
func NewService(db *database.DB) *Service {
	return NewServiceWithOptions(db, Options{})
}

// NewServiceWithOptions creates a new service instance with custom collaborators.
func NewServiceWithOptions(db *database.DB, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NewInMemoryCache()
	}
	if opts.Events == nil {
		opts.Events = events.NewManager(false)
	}
	if opts.Features == nil {
		opts.Features = features.NewDefaultManager(true, false)
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.GetTracer()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &Service{
		db:       db,
		cache:    opts.Cache,
		events:   opts.Events,
		features: opts.Features,
		tracer:   opts.Tracer,
		cacheTTL: opts.CacheTTL,
	}
	// Seeded from the clock so a restarted process does not reuse keys left
	// in a shared Redis cache.
	s.generation.Store(uint64(time.Now().UnixNano()))
	return s
}

// CreateOffer creates or updates a catalog offer.
func (s *Service) CreateOffer(ctx context.Context, offer models.Offer) error {
	if err := validation.ValidateOffer(offer); err != nil {
		return err
	}

	if err := s.db.UpsertOffer(ctx, offer); err != nil {
		return err
	}

	s.catalogChanged(ctx)
	s.publish(func() { s.events.PublishOfferUpserted(ctx, offer) })
	return nil
}

// ImportOffers validates and stores a batch of offers in one transaction.
func (s *Service) ImportOffers(ctx context.Context, offers []models.Offer) (int, error) {
	if len(offers) > maxImportOffers {
		return 0, &validation.ValidationError{
			Field:   "offers",
			Message: fmt.Sprintf("cannot import more than %d offers at once", maxImportOffers),
		}
	}

	for i, offer := range offers {
		if err := validation.ValidateOffer(offer); err != nil {
			return 0, fmt.Errorf("invalid offer at index %d: %w", i, err)
		}
	}

	n, err := s.db.UpsertOffers(ctx, offers)
	if err != nil {
		return 0, err
	}

	s.catalogChanged(ctx)
	s.publish(func() {
		for _, offer := range offers {
			s.events.PublishOfferUpserted(ctx, offer)
		}
	})
	return n, nil
}

// GetOffer returns a single catalog offer.
func (s *Service) GetOffer(ctx context.Context, id int) (models.Offer, error) {
	return s.db.GetOffer(ctx, id)
}

// ListOffers returns the whole catalog.
func (s *Service) ListOffers(ctx context.Context) (models.ListOffersResponse, error) {
	offers, err := s.db.ListOffers(ctx)
	if err != nil {
		return models.ListOffersResponse{}, err
	}
	return models.ListOffersResponse{Offers: offers, Count: len(offers)}, nil
}

// DeleteOffer removes a catalog offer.
func (s *Service) DeleteOffer(ctx context.Context, id int) error {
	if err := s.db.DeleteOffer(ctx, id); err != nil {
		return err
	}

	s.catalogChanged(ctx)
	s.publish(func() { s.events.PublishOfferDeleted(ctx, id) })
	return nil
}

// Recommend selects offers from the list supplied in the request.
func (s *Service) Recommend(ctx context.Context, req models.RecommendRequest) (models.RecommendResponse, error) {
	if !s.features.IsEnabled(features.FeatureInlineRecommendations) {
		return models.RecommendResponse{}, ErrInlineDisabled
	}
	if err := validation.ValidateRecommendRequest(req); err != nil {
		s.countRecommendation(metrics.SourceInline, err)
		return models.RecommendResponse{}, err
	}

	selected, err := s.runPipeline(ctx, req.Checkin, req.Offers, req.AgeGroup, req.Gender)
	s.countRecommendation(metrics.SourceInline, err)
	if err != nil {
		return models.RecommendResponse{}, err
	}

	resp := newResponse(req, selected)
	s.publishServed(ctx, metrics.SourceInline, resp, false)
	return resp, nil
}

// RecommendFromCatalog selects offers from the stored catalog. Results are
// cached until the catalog changes or the TTL passes.
func (s *Service) RecommendFromCatalog(ctx context.Context, checkin, ageGroup, gender string) (models.RecommendResponse, error) {
	req := models.RecommendRequest{Checkin: checkin, AgeGroup: ageGroup, Gender: gender}
	if err := validation.ValidateRecommendRequest(req); err != nil {
		s.countRecommendation(metrics.SourceCatalog, err)
		return models.RecommendResponse{}, err
	}

	useCache := s.features.IsEnabled(features.FeatureCacheEnabled)
	gen := s.generation.Load()
	key := cache.Key("recommend", strconv.FormatUint(gen, 10), checkin, ageGroup, gender)

	if useCache {
		var cached models.RecommendResponse
		err := cache.GetJSON(ctx, s.cache, key, &cached)
		switch {
		case err == nil:
			metrics.CacheHits.Inc()
			s.countRecommendation(metrics.SourceCatalog, nil)
			s.publishServed(ctx, metrics.SourceCatalog, cached, true)
			return cached, nil
		case errors.Is(err, cache.ErrNotFound):
			metrics.CacheMisses.Inc()
		default:
			metrics.CacheMisses.Inc()
			logging.Ctx(ctx).Warn().Err(err).Msg("recommendation cache read failed")
		}
	}

	offers, err := s.db.ListOffers(ctx)
	if err != nil {
		s.countRecommendation(metrics.SourceCatalog, err)
		return models.RecommendResponse{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	selected, err := s.runPipeline(ctx, checkin, offers, ageGroup, gender)
	s.countRecommendation(metrics.SourceCatalog, err)
	if err != nil {
		return models.RecommendResponse{}, err
	}

	resp := newResponse(req, selected)

	// Skip the write if the catalog changed while the pipeline ran.
	if useCache && s.generation.Load() == gen {
		if err := cache.SetJSON(ctx, s.cache, key, resp, s.cacheTTL); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("recommendation cache write failed")
		}
	}

	s.publishServed(ctx, metrics.SourceCatalog, resp, false)
	return resp, nil
}

// runPipeline runs the selection stages with a span per stage.
func (s *Service) runPipeline(ctx context.Context, checkin string, offers []models.Offer, ageGroup, gender string) ([]models.OfferView, error) {
	start := time.Now()
	defer func() { metrics.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	ctx, span := s.tracer.StartSpan(ctx, "selection.pipeline")
	defer span.End()

	checkinDate, err := selection.ParseDate(checkin)
	if err != nil {
		err = fmt.Errorf("checkin: %w", err)
		tracing.RecordError(span, err)
		return nil, err
	}

	var stage trace.Span
	selected, err := selection.Run(checkinDate, offers, ageGroup, gender, selection.Hooks{
		Before: func(name string) {
			_, stage = s.tracer.StartSpan(ctx, "selection."+name)
		},
		After: func(name string, in, out int, err error) {
			stage.SetAttributes(tracing.StageAttributes(in, out)...)
			stage.End()
			if err != nil {
				if name == selection.StageSelectBest {
					logging.Ctx(ctx).Error().Err(err).Msg("offer selection invariant violated")
				}
				return
			}
			switch name {
			case selection.StageFilterValid, selection.StageSelectBest:
				metrics.OffersDropped.WithLabelValues(name).Add(float64(in - out))
			}
		},
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return selected, nil
}

// IsClientError reports whether err was caused by the request rather than
// by the service.
func IsClientError(err error) bool {
	var vErr *validation.ValidationError
	return errors.As(err, &vErr) ||
		errors.Is(err, selection.ErrParse) ||
		errors.Is(err, selection.ErrKeyLookup) ||
		errors.Is(err, selection.ErrEmptyMerchantList) ||
		errors.Is(err, database.ErrOfferNotFound) ||
		errors.Is(err, ErrInlineDisabled)
}

func (s *Service) countRecommendation(source string, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case IsClientError(err):
		outcome = metrics.OutcomeClientError
	default:
		outcome = metrics.OutcomeServerError
	}
	metrics.RecommendationsTotal.WithLabelValues(source, outcome).Inc()
}

// catalogChanged retires cached recommendations and refreshes the catalog
// gauge.
func (s *Service) catalogChanged(ctx context.Context) {
	s.generation.Add(1)
	if err := s.cache.Clear(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to clear recommendation cache")
	}
	if n, err := s.db.CountOffers(ctx); err == nil {
		metrics.CatalogSize.Set(float64(n))
	}
}

func (s *Service) publish(fn func()) {
	if s.features.IsEnabled(features.FeatureEventHooksEnabled) {
		fn()
	}
}

func (s *Service) publishServed(ctx context.Context, source string, resp models.RecommendResponse, cached bool) {
	s.publish(func() {
		s.events.PublishRecommendationServed(ctx, events.RecommendationServedData{
			Checkin:  resp.Checkin,
			AgeGroup: resp.AgeGroup,
			Gender:   resp.Gender,
			Source:   source,
			Offers:   resp.Offers,
			Cached:   cached,
		})
	})
}

func newResponse(req models.RecommendRequest, selected []models.OfferView) models.RecommendResponse {
	return models.RecommendResponse{
		Checkin:  req.Checkin,
		AgeGroup: req.AgeGroup,
		Gender:   req.Gender,
		Offers:   selected,
	}
}
