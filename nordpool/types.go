package nordpool

import "encoding/json"

// Wire format of the data portal's DayAheadPrices endpoint, reduced to
// the fields we read. Prices are kept as raw JSON so that a non-numeric
// value can be reported as a malformed price rather than a decode error
// for the whole body.
type dayAheadResponse struct {
	MultiAreaEntries []multiAreaEntry `json:"multiAreaEntries"`
}

type multiAreaEntry struct {
	DeliveryStart string                     `json:"deliveryStart"`
	EntryPerArea  map[string]json.RawMessage `json:"entryPerArea"`
}
