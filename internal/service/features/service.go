// Package features assembles the model feature vector of a loan request from
// its raw signals and the frozen training artifacts.
package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/loan-fraud-features/internal/domain/binning"
	apperrors "github.com/davidleathers/loan-fraud-features/internal/domain/errors"
	"github.com/davidleathers/loan-fraud-features/internal/domain/identity"
	"github.com/davidleathers/loan-fraud-features/internal/domain/presence"
	"github.com/davidleathers/loan-fraud-features/internal/domain/signals"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/artifacts"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/ipintel"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/telemetry"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/useragent"
	"github.com/davidleathers/loan-fraud-features/internal/metrics"
)

// StoreProvider hands out the artifact store, building it on first use.
type StoreProvider interface {
	Load(ctx context.Context) (*artifacts.Store, error)
}

// UserAgentParser extracts device fields from a User-Agent header.
type UserAgentParser interface {
	Parse(raw string) useragent.Info
}

// Service derives feature vectors. It is safe for concurrent use.
type Service struct {
	artifacts StoreProvider
	spec      *presence.Spec
	ip        ipintel.Resolver
	ua        UserAgentParser
	metrics   *metrics.Registry
	tracer    *telemetry.Tracer
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewService creates a Service. m may be nil.
func NewService(
	store StoreProvider,
	spec *presence.Spec,
	ip ipintel.Resolver,
	ua UserAgentParser,
	m *metrics.Registry,
	logger *zap.Logger,
) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if spec == nil {
		return nil, fmt.Errorf("digital signal spec is required")
	}
	if ip == nil {
		return nil, fmt.Errorf("ip resolver is required")
	}
	if ua == nil {
		return nil, fmt.Errorf("user agent parser is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Service{
		artifacts: store,
		spec:      spec,
		ip:        ip,
		ua:        ua,
		metrics:   m,
		tracer:    telemetry.NewTracer("loan-fraud-features/features"),
		validate:  validator.New(),
		logger:    logger,
	}, nil
}

// Derive computes the full vector for req. Only a malformed request or a
// failed artifact load is an error; every other gap resolves to a default.
func (s *Service) Derive(ctx context.Context, req *Request) (*Vector, error) {
	start := time.Now()

	if req == nil {
		s.observe(start, "invalid")
		return nil, apperrors.ErrNilRequest
	}
	if err := s.validate.Struct(req); err != nil {
		s.observe(start, "invalid")
		return nil, apperrors.NewValidationError("INVALID_REQUEST", "request failed validation").WithCause(err)
	}

	requestID := req.RequestID
	if requestID == uuid.Nil {
		requestID = uuid.New()
	}

	ctx, span := s.tracer.StartSpan(ctx, "features.Derive", map[string]interface{}{
		"request_id": requestID.String(),
	})
	defer span.End()

	store, err := s.artifacts.Load(ctx)
	if err != nil {
		s.tracer.RecordError(span, err, "artifact load failed")
		s.observe(start, "error")
		return nil, err
	}

	b := newBuilder(requestID, store, s.metrics)

	ua := s.ua.Parse(req.UserAgent)
	if req.UserAgent != "" && ua.OSFamily == "" {
		s.collaboratorFailure("useragent", "unparsed")
	}
	b.category(CategoryDevice, ua.Device)

	ip := s.lookupIP(ctx, req.IP)
	b.category(CategoryIPASNOrg, ip.ASNOrg)
	b.category(CategoryIPCity, ip.City)

	indicators := s.indicators(req.Platforms)
	networkTools := s.spec.NetworkToolsCount(indicators)
	commercial := s.spec.CommercialCount(indicators)

	b.shrink(FeatureBankName, req.BankName)
	b.shrink(FeatureOSFamily, ua.OSFamily)
	b.shrink(FeatureDays, string(daysBucket(req)))
	b.shrink(FeatureAmount, string(amountBucket(req)))
	b.shrink(FeatureIPASNFlag, store.Flag(artifacts.FlagTableASNOrg, ip.ASNOrg, artifacts.FlagNormal))
	b.shrink(FeatureIPCityFlag, store.Flag(artifacts.FlagTableCity, ip.City, artifacts.FlagNormal))
	b.shrink(FeaturePlatforms, req.TramoPlatforms)
	b.shrink(FeatureNetworkTools, string(binning.NetworkTools(networkTools)))
	b.shrink(FeatureGoodBehavioralApps, req.TramoGoodBehavioralApps)
	b.shrink(FeatureCommercialPlatforms, string(binning.Commercial(commercial)))

	b.value(FeatureDigitalPresenceScore, s.spec.Score(indicators))
	b.value(FeatureNumNetworkTools, float64(networkTools))
	b.value(FeatureNumCommercialPlatforms, float64(commercial))

	b.flag(FeaturePromoCode, signals.PromoCodeUsed(req.PromoCodeID))
	b.flag(FeatureTelePrivacyStatus, signals.PrivacyIsPrivate(req.PrivacyStatus))
	b.flag(FeatureHasInformation, signals.HasInformation(req.PrivacyStatus))
	b.flag(FeatureMatchEmail, boolToInt(identity.MatchAnyMaskedEmail(req.Email, req.MaskedEmails)))
	b.flag(FeatureMatchPhone, boolToInt(identity.MatchLastTwoDigits(req.Phone, req.MaskedPhones)))
	b.flag(FeatureMatchName, boolToInt(namesMatch(req.FullName, req.ProviderName)))

	for name, v := range req.Signals {
		b.flag(SignalFeaturePrefix+name, signals.SafeBool(v))
	}

	s.observe(start, "success")
	telemetry.WithTrace(ctx, s.logger).Debug("feature vector derived",
		zap.String("request_id", requestID.String()),
		zap.Int("features", len(b.vector.Values)),
		zap.Duration("elapsed", time.Since(start)))

	return b.vector, nil
}

// lookupIP degrades every collaborator failure to an empty Info, which the
// flag tables resolve to NORMAL.
func (s *Service) lookupIP(ctx context.Context, ip string) ipintel.Info {
	if ip == "" {
		return ipintel.Info{}
	}

	info, err := s.ip.Lookup(ctx, ip)
	if err == nil {
		return info
	}

	switch {
	case errors.Is(err, ipintel.ErrInvalidIP):
		s.collaboratorFailure("ipintel", "invalid_input")
		s.logger.Debug("ip lookup skipped", zap.String("ip", ip), zap.Error(err))
	case errors.Is(err, ipintel.ErrCircuitBreakerOpen):
		s.collaboratorFailure("ipintel", "circuit_open")
	default:
		s.collaboratorFailure("ipintel", "lookup_error")
		s.logger.Warn("ip lookup failed",
			zap.String("ip", ip),
			zap.Bool("retryable", apperrors.IsRetryable(err)),
			zap.Error(err))
	}
	return ipintel.Info{}
}

func (s *Service) indicators(platforms map[string]any) presence.Indicators {
	ind := make(presence.Indicators, len(platforms))
	for col, v := range platforms {
		ind[col] = signals.SafeFloat(v)
	}
	return ind
}

func (s *Service) collaboratorFailure(collaborator, reason string) {
	if s.metrics != nil {
		s.metrics.CollaboratorFailures.WithLabelValues(collaborator, reason).Inc()
	}
}

func (s *Service) observe(start time.Time, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.DerivationsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		s.metrics.DerivationDuration.Observe(time.Since(start).Seconds())
	}
}

func daysBucket(req *Request) binning.DaysBucket {
	if req.DaysToRepay == nil {
		return binning.DaysNotAvail
	}
	return binning.Days(*req.DaysToRepay)
}

func amountBucket(req *Request) binning.AmountBucket {
	if req.Amount == nil {
		return binning.AmountNotAvail
	}
	return binning.Amount(*req.Amount)
}

// namesMatch needs both names; an empty name would be a substring of anything.
func namesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return identity.NamesMatch(a, b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// builder accumulates one vector.
type builder struct {
	vector  *Vector
	store   *artifacts.Store
	metrics *metrics.Registry
}

func newBuilder(id uuid.UUID, store *artifacts.Store, m *metrics.Registry) *builder {
	return &builder{
		vector: &Vector{
			RequestID:  id,
			Values:     make(map[string]float64, 32),
			Categories: make(map[string]string, 16),
		},
		store:   store,
		metrics: m,
	}
}

// shrink resolves category through the feature's table, falling back to 1.0.
func (b *builder) shrink(feature, category string) {
	b.vector.Categories[feature] = category
	v, ok := b.store.Lookup(feature, category)
	if !ok {
		v = artifacts.DefaultShrinkage
		if b.metrics != nil {
			b.metrics.LookupMisses.WithLabelValues(feature).Inc()
		}
	}
	b.vector.Values[feature] = v
}

func (b *builder) value(name string, v float64) {
	b.vector.Values[name] = v
}

func (b *builder) flag(name string, v int) {
	b.vector.Values[name] = float64(v)
}

func (b *builder) category(name, v string) {
	b.vector.Categories[name] = v
}
