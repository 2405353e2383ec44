package binning

import "github.com/shopspring/decimal"

// DaysBucket is the repayment-term bucket.
type DaysBucket string

const (
	Days1To14    DaysBucket = "1-14 días"
	Days15To25   DaysBucket = "15-25 días"
	Days26To29   DaysBucket = "26-29 días"
	Days30       DaysBucket = "30 días"
	Days31To35   DaysBucket = "31-35 días"
	Days36To43   DaysBucket = "36-43 días"
	DaysNotAvail DaysBucket = NotAvailable
)

// AmountBucket is the requested-amount bucket.
type AmountBucket string

const (
	Amount50       AmountBucket = "50€"
	Amount51To99   AmountBucket = "51€-99€"
	Amount100To101 AmountBucket = "100€-101€"
	Amount102To199 AmountBucket = "102-199€"
	Amount200To300 AmountBucket = "200-300€"
	AmountNotAvail AmountBucket = NotAvailable
)

// NetworkToolsBucket buckets the number of professional network tools.
type NetworkToolsBucket string

const (
	NetworkTools0        NetworkToolsBucket = "0"
	NetworkTools1        NetworkToolsBucket = "1"
	NetworkTools2        NetworkToolsBucket = "2"
	NetworkTools3        NetworkToolsBucket = "3"
	NetworkTools4To8     NetworkToolsBucket = "4-8"
	NetworkToolsNotAvail NetworkToolsBucket = NotAvailable
)

// CommercialBucket buckets the number of commercial platforms.
type CommercialBucket string

const (
	Commercial0        CommercialBucket = "0"
	Commercial1        CommercialBucket = "1"
	Commercial2        CommercialBucket = "2"
	Commercial3        CommercialBucket = "3"
	Commercial4To6     CommercialBucket = "4-6"
	CommercialNotAvail CommercialBucket = NotAvailable
)

// Artifact feature names fed by each rule.
const (
	FeatureDays         = "tramos_days"
	FeatureAmount       = "tramo_amount_2"
	FeatureNetworkTools = "tramo_platforms_network_tools"
	FeatureCommercial   = "tramo_platforms_comercial"
)

var (
	// DaysRule buckets the days to repay. Negative terms are not a valid
	// repayment plan and fall through to N/A.
	DaysRule = NewRule(FeatureDays, DaysNotAvail,
		Bin[int, DaysBucket]{Label: Days1To14, Match: intBetween(0, 14)},
		Bin[int, DaysBucket]{Label: Days15To25, Match: intBetween(15, 25)},
		Bin[int, DaysBucket]{Label: Days26To29, Match: intBetween(26, 29)},
		Bin[int, DaysBucket]{Label: Days30, Match: intEquals(30)},
		Bin[int, DaysBucket]{Label: Days31To35, Match: intBetween(31, 35)},
		Bin[int, DaysBucket]{Label: Days36To43, Match: intBetween(36, 43)},
	)

	// AmountRule buckets the requested amount in euros. Values strictly
	// between two bins (e.g. 101.5) are N/A.
	AmountRule = NewRule(FeatureAmount, AmountNotAvail,
		Bin[decimal.Decimal, AmountBucket]{Label: Amount50, Match: decAtMost(50)},
		Bin[decimal.Decimal, AmountBucket]{Label: Amount51To99, Match: decBetween(51, 99)},
		Bin[decimal.Decimal, AmountBucket]{Label: Amount100To101, Match: decBetween(100, 101)},
		Bin[decimal.Decimal, AmountBucket]{Label: Amount102To199, Match: decBetween(102, 199)},
		Bin[decimal.Decimal, AmountBucket]{Label: Amount200To300, Match: decBetween(200, 300)},
	)

	NetworkToolsRule = NewRule(FeatureNetworkTools, NetworkToolsNotAvail,
		Bin[int, NetworkToolsBucket]{Label: NetworkTools0, Match: intAtMost(0)},
		Bin[int, NetworkToolsBucket]{Label: NetworkTools1, Match: intEquals(1)},
		Bin[int, NetworkToolsBucket]{Label: NetworkTools2, Match: intEquals(2)},
		Bin[int, NetworkToolsBucket]{Label: NetworkTools3, Match: intEquals(3)},
		Bin[int, NetworkToolsBucket]{Label: NetworkTools4To8, Match: intBetween(4, 8)},
	)

	CommercialRule = NewRule(FeatureCommercial, CommercialNotAvail,
		Bin[int, CommercialBucket]{Label: Commercial0, Match: intAtMost(0)},
		Bin[int, CommercialBucket]{Label: Commercial1, Match: intEquals(1)},
		Bin[int, CommercialBucket]{Label: Commercial2, Match: intEquals(2)},
		Bin[int, CommercialBucket]{Label: Commercial3, Match: intEquals(3)},
		Bin[int, CommercialBucket]{Label: Commercial4To6, Match: intBetween(4, 6)},
	)
)

// Days returns the repayment-term bucket for days.
func Days(days int) DaysBucket {
	return DaysRule.Assign(days)
}

// Amount returns the requested-amount bucket.
func Amount(amount decimal.Decimal) AmountBucket {
	return AmountRule.Assign(amount)
}

// NetworkTools returns the bucket for a professional network tool count.
func NetworkTools(count int) NetworkToolsBucket {
	return NetworkToolsRule.Assign(count)
}

// Commercial returns the bucket for a commercial platform count.
func Commercial(count int) CommercialBucket {
	return CommercialRule.Assign(count)
}

func decAtMost(max int64) func(decimal.Decimal) bool {
	limit := decimal.NewFromInt(max)
	return func(v decimal.Decimal) bool { return v.LessThanOrEqual(limit) }
}

func decBetween(min, max int64) func(decimal.Decimal) bool {
	lo, hi := decimal.NewFromInt(min), decimal.NewFromInt(max)
	return func(v decimal.Decimal) bool {
		return v.GreaterThanOrEqual(lo) && v.LessThanOrEqual(hi)
	}
}
