package storage

import "time"

// Run is a persisted analysis run: the request and full result as JSON blobs
// plus denormalized headline figures for cheap listing. The base-case
// metrics use nil for "undefined"/"never", mirroring the engine.
type Run struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Variant   string    `json:"variant"`
	MinerName string    `json:"minerName"`
	NMiners   int       `json:"nMiners"`
	CapexUSD  float64   `json:"capexUsd"`

	NPVBase           float64  `json:"npvBase"`
	IRRBase           *float64 `json:"irrBase,omitempty"`
	SimplePaybackBase *float64 `json:"simplePaybackBase,omitempty"`

	RequestJSON string `json:"requestJson,omitempty"`
	ResultJSON  string `json:"resultJson,omitempty"`
}

// RunSummary is the listing view of a run, without the JSON payloads.
type RunSummary struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Variant   string    `json:"variant"`
	MinerName string    `json:"minerName"`
	NMiners   int       `json:"nMiners"`
	CapexUSD  float64   `json:"capexUsd"`

	NPVBase           float64  `json:"npvBase"`
	IRRBase           *float64 `json:"irrBase,omitempty"`
	SimplePaybackBase *float64 `json:"simplePaybackBase,omitempty"`
}
