package ipintel

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	apperrors "github.com/davidleathers/loan-fraud-features/internal/domain/errors"
)

// geoipService names the collaborator in external errors.
const geoipService = "geoip"

type asnReader interface {
	ASN(ip net.IP) (*geoip2.ASN, error)
	io.Closer
}

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	io.Closer
}

// MaxMindResolver reads GeoLite2 ASN and City databases. Either database may
// be omitted, in which case the matching field is always empty.
type MaxMindResolver struct {
	asn    asnReader
	city   cityReader
	locale string
	logger *zap.Logger
}

// NewMaxMindResolver opens the databases at asnPath and cityPath. An empty
// path skips that database.
func NewMaxMindResolver(asnPath, cityPath, locale string, logger *zap.Logger) (*MaxMindResolver, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	r := &MaxMindResolver{locale: locale, logger: logger}

	if asnPath != "" {
		reader, err := geoip2.Open(asnPath)
		if err != nil {
			return nil, fmt.Errorf("opening asn database %s: %w", asnPath, err)
		}
		r.asn = reader
	}

	if cityPath != "" {
		reader, err := geoip2.Open(cityPath)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("opening city database %s: %w", cityPath, err)
		}
		r.city = reader
	}

	logger.Info("geoip databases opened",
		zap.Bool("asn", r.asn != nil),
		zap.Bool("city", r.city != nil),
		zap.String("locale", locale))

	return r, nil
}

// Lookup returns the ASN organisation and the localized city name.
func (r *MaxMindResolver) Lookup(ctx context.Context, ip string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	addr, err := parseIP(ip)
	if err != nil {
		return Info{}, err
	}

	var info Info
	if r.asn != nil {
		record, err := r.asn.ASN(addr)
		if err != nil {
			return Info{}, apperrors.NewExternalError(geoipService, "asn lookup failed").WithCause(err)
		}
		info.ASNOrg = record.AutonomousSystemOrganization
	}

	if r.city != nil {
		record, err := r.city.City(addr)
		if err != nil {
			return Info{}, apperrors.NewExternalError(geoipService, "city lookup failed").WithCause(err)
		}
		info.City = record.City.Names[r.locale]
	}

	return info, nil
}

// Close releases both databases.
func (r *MaxMindResolver) Close() error {
	var firstErr error
	var readers []io.Closer
	if r.asn != nil {
		readers = append(readers, r.asn)
	}
	if r.city != nil {
		readers = append(readers, r.city)
	}
	for _, reader := range readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
