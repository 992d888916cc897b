package model

import "fmt"

// RawRecord is a point of interest as returned by the POI source. Tags the
// source did not carry are nil.
type RawRecord struct {
	OSMType   string   `json:"osm_type"`
	OSMID     int64    `json:"osm_id"`
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Website   *string  `json:"website"`
	Email     *string  `json:"email"`
	Phone     *string  `json:"phone"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Key identifies the record across queries, e.g. "node/123".
func (r RawRecord) Key() string {
	return fmt.Sprintf("%s/%d", r.OSMType, r.OSMID)
}

// SearchPoint is a geographic coordinate.
type SearchPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
