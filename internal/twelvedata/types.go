package twelvedata

// timeSeriesResponse is the tagged union the time_series endpoint returns:
// a success body carries "values", an error body carries status == "error"
// plus code/message. Decoding into one struct keeps the two shapes
// distinguishable without ad hoc field probing.
type timeSeriesResponse struct {
	Status  string           `json:"status,omitempty"`
	Code    int              `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
	Values  []timeSeriesValue `json:"values,omitempty"`
}

// timeSeriesValue is one raw bar record. All fields arrive as strings.
type timeSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}

// statusError is the marker value of the Status field on error payloads.
const statusError = "error"

// datetimeLayout is the provider's bar timestamp format, interpreted as UTC
// (the request pins timezone=UTC).
const datetimeLayout = "2006-01-02 15:04:05"
