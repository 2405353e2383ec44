package features

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Output feature names. The ten shrinkage features share their name with the
// artifact table they are looked up in.
const (
	FeatureBankName               = "bank_name"
	FeatureOSFamily               = "os_family"
	FeatureDays                   = "tramos_days"
	FeatureAmount                 = "tramo_amount_2"
	FeatureIPASNFlag              = "ip_asn_flag"
	FeatureIPCityFlag             = "ip_city_flag"
	FeaturePlatforms              = "tramo_platforms"
	FeatureNetworkTools           = "tramo_platforms_network_tools"
	FeatureGoodBehavioralApps     = "tramo_good_behavioral_apps"
	FeatureCommercialPlatforms    = "tramo_platforms_comercial"
	FeatureDigitalPresenceScore   = "digital_presence_score"
	FeatureNumNetworkTools        = "num_professional_network_tools"
	FeatureNumCommercialPlatforms = "num_plataformas_comercial"
	FeaturePromoCode              = "promo_code"
	FeatureTelePrivacyStatus      = "tele_privacy_status"
	FeatureHasInformation         = "has_information"
	FeatureMatchEmail             = "match_email"
	FeatureMatchPhone             = "match_phone"
	FeatureMatchName              = "match_name"
	SignalFeaturePrefix           = "flag_"
	CategoryIPASNOrg              = "ip_asn_org"
	CategoryIPCity                = "ip_city"
	CategoryDevice                = "device"
)

// Request carries the raw signals of one loan application.
type Request struct {
	RequestID uuid.UUID `json:"request_id"`

	BankName  string `json:"bank_name" validate:"max=256"`
	UserAgent string `json:"user_agent" validate:"max=4096"`
	IP        string `json:"ip" validate:"max=64"`

	// Repayment plan. Missing values bin to N/A.
	DaysToRepay *int             `json:"days_to_repay"`
	Amount      *decimal.Decimal `json:"amount"`

	PromoCodeID   *string `json:"promo_code_id"`
	PrivacyStatus *string `json:"whatsapp_privacy_status" validate:"omitempty,max=64"`

	// Identity checks against the provider's masked, comma-joined candidates.
	Email        string `json:"email" validate:"max=320"`
	Phone        string `json:"phone" validate:"max=32"`
	MaskedEmails string `json:"masked_emails" validate:"max=8192"`
	MaskedPhones string `json:"masked_phones" validate:"max=4096"`
	FullName     string `json:"full_name" validate:"max=512"`
	ProviderName string `json:"provider_name" validate:"max=512"`

	// Categories already bucketed by the provider.
	TramoPlatforms          string `json:"tramo_platforms" validate:"max=64"`
	TramoGoodBehavioralApps string `json:"tramo_good_behavioral_apps" validate:"max=64"`

	// Platform indicators keyed by column, e.g. email_has_github.
	Platforms map[string]any `json:"platforms" validate:"dive,keys,required,max=128,endkeys"`

	// Boolean signals emitted as flag_<name>.
	Signals map[string]any `json:"signals" validate:"dive,keys,required,max=128,endkeys"`
}

// Vector is the complete feature set of one request.
type Vector struct {
	RequestID  uuid.UUID          `json:"request_id"`
	Values     map[string]float64 `json:"features"`
	Categories map[string]string  `json:"categories"`
}

// Flatten returns a copy of the named values for the scoring model.
func (v *Vector) Flatten() map[string]float64 {
	out := make(map[string]float64, len(v.Values))
	for k, val := range v.Values {
		out[k] = val
	}
	return out
}

// Names returns the feature names in lexical order.
func (v *Vector) Names() []string {
	names := make([]string, 0, len(v.Values))
	for k := range v.Values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
