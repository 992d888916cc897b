package overpass

import (
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (r *response) records() []model.RawRecord {
	out := make([]model.RawRecord, 0, len(r.Elements))
	for _, el := range r.Elements {
		out = append(out, el.record())
	}
	return out
}

func (el element) record() model.RawRecord {
	rec := model.RawRecord{
		OSMType:  el.Type,
		OSMID:    el.ID,
		Name:     el.tag("name"),
		Category: el.tag("amenity", "shop"),
		Website:  el.tag("website", "contact:website", "url"),
		Email:    el.tag("email", "contact:email"),
		Phone:    el.tag("phone", "contact:phone"),
		Address:  el.address(),
	}
	switch {
	case el.Lat != nil && el.Lon != nil:
		rec.Latitude, rec.Longitude = model.Float(*el.Lat), model.Float(*el.Lon)
	case el.Center != nil:
		rec.Latitude, rec.Longitude = model.Float(el.Center.Lat), model.Float(el.Center.Lon)
	}
	return rec
}

// tag returns the first present tag among keys.
func (el element) tag(keys ...string) *string {
	for _, k := range keys {
		if v, ok := el.Tags[k]; ok {
			v = strings.TrimSpace(v)
			return &v
		}
	}
	return nil
}

func (el element) address() *string {
	var parts []string
	for _, k := range []string{"addr:housenumber", "addr:street", "addr:city", "addr:postcode"} {
		if v := strings.TrimSpace(el.Tags[k]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		s := strings.Join(parts, ", ")
		return &s
	}
	return el.tag("addr:full")
}
