package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata and the regular market price
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Close price arrays
//   - Chart.Error: Optional error object from Yahoo API
type Response struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceChart is the parsed daily close series of one symbol.
type PriceChart struct {
	Symbol      string    `json:"symbol"`
	Currency    string    `json:"currency"`
	MarketPrice float64   `json:"marketPrice"`
	MarketTime  time.Time `json:"marketTime"`
	Closes      []Close   `json:"closes"`
}

// Close is one trading day's closing price.
type Close struct {
	Date  time.Time
	Price float64
}
