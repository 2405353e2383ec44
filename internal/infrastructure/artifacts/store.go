// Package artifacts serves the per-category shrinkage factors and IP risk
// flags computed offline at training time.
package artifacts

// Sentinels returned when a lookup misses.
const (
	DefaultShrinkage = 1.0
	FlagNormal       = "NORMAL"
)

// Shrinkage tables, one per model feature.
const (
	TableBankName            = "bank_name"
	TableOSFamily            = "os_family"
	TableDays                = "tramos_days"
	TableAmount              = "tramo_amount_2"
	TableIPASNFlag           = "ip_asn_flag"
	TableIPCityFlag          = "ip_city_flag"
	TablePlatforms           = "tramo_platforms"
	TableNetworkTools        = "tramo_platforms_network_tools"
	TableGoodBehavioralApps  = "tramo_good_behavioral_apps"
	TableCommercialPlatforms = "tramo_platforms_comercial"
)

// Flag tables map a raw IP attribute to a risk flag label.
const (
	FlagTableASNOrg = "ip_asn_org"
	FlagTableCity   = "ip_city"
)

// ShrinkageTables lists the numeric tables required at cold start.
var ShrinkageTables = []string{
	TableBankName,
	TableOSFamily,
	TableDays,
	TableAmount,
	TableIPASNFlag,
	TableIPCityFlag,
	TablePlatforms,
	TableNetworkTools,
	TableGoodBehavioralApps,
	TableCommercialPlatforms,
}

// FlagTables lists the label tables required at cold start.
var FlagTables = []string{
	FlagTableASNOrg,
	FlagTableCity,
}

// Store is the immutable, process-wide set of artifact tables.
type Store struct {
	shrinkage map[string]map[string]float64
	flags     map[string]map[string]string
}

// NewStore copies the given tables into a Store.
func NewStore(shrinkage map[string]map[string]float64, flags map[string]map[string]string) *Store {
	s := &Store{
		shrinkage: make(map[string]map[string]float64, len(shrinkage)),
		flags:     make(map[string]map[string]string, len(flags)),
	}
	for name, table := range shrinkage {
		cp := make(map[string]float64, len(table))
		for k, v := range table {
			cp[k] = v
		}
		s.shrinkage[name] = cp
	}
	for name, table := range flags {
		cp := make(map[string]string, len(table))
		for k, v := range table {
			cp[k] = v
		}
		s.flags[name] = cp
	}
	return s
}

// Lookup returns the shrinkage factor of category within feature.
func (s *Store) Lookup(feature, category string) (float64, bool) {
	table, ok := s.shrinkage[feature]
	if !ok {
		return 0, false
	}
	v, ok := table[category]
	return v, ok
}

// Shrinkage returns the factor of category within feature, or def when the
// feature or the category is unknown.
func (s *Store) Shrinkage(feature, category string, def float64) float64 {
	if v, ok := s.Lookup(feature, category); ok {
		return v
	}
	return def
}

// Flag returns the label stored for key in a flag table, or def.
func (s *Store) Flag(table, key, def string) string {
	if t, ok := s.flags[table]; ok {
		if v, ok := t[key]; ok {
			return v
		}
	}
	return def
}

// Sizes returns the number of categories per table.
func (s *Store) Sizes() map[string]int {
	sizes := make(map[string]int, len(s.shrinkage)+len(s.flags))
	for name, t := range s.shrinkage {
		sizes[name] = len(t)
	}
	for name, t := range s.flags {
		sizes[name] = len(t)
	}
	return sizes
}
