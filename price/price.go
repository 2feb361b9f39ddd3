package price

import "time"

const dateLayout = "2006-01-02"

// Point is one hourly spot price. Start is the delivery hour in UTC,
// Price is in currency-cents per kWh including VAT.
type Point struct {
	Start time.Time
	Price float64
}

// Series holds the prices for a single delivery date, in the order the
// upstream API returned them (ascending hourly for one date).
type Series struct {
	Date   string // delivery date, YYYY-MM-DD
	Points []Point
}

func (s Series) IsEmpty() bool {
	return len(s.Points) == 0
}

// Day parses the series' delivery date. The zero time is returned for a
// malformed date string.
func (s Series) Day() time.Time {
	t, err := time.Parse(dateLayout, s.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ConvertRaw converts a raw day-ahead price in currency per MWh excluding
// VAT to currency-cents per kWh including VAT.
func ConvertRaw(raw float64, vatMultiplier float64) float64 {
	return raw * vatMultiplier / 10
}

// VatMultiplier turns a VAT rate (e.g. 0.24) into the multiplier applied
// to pre-tax prices.
func VatMultiplier(vat float64) float64 {
	return 1 + vat
}
