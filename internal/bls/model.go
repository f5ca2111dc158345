package bls

// seriesRequest is the body of a BLS timeseries query.
type seriesRequest struct {
	SeriesID  []string `json:"seriesid"`
	StartYear string   `json:"startyear"`
	EndYear   string   `json:"endyear"`
}

// Response represents the BLS public API v2 timeseries response.
type Response struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string        `json:"seriesID"`
			Data     []Observation `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// Observation is one monthly value. Period is "M01".."M12"; Value is a decimal string.
type Observation struct {
	Year   string `json:"year"`
	Period string `json:"period"`
	Value  string `json:"value"`
}
