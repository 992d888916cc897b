package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/scorer"
)

// WriteGeoJSON writes a FeatureCollection of point features. Leads without
// coordinates are left out.
func WriteGeoJSON(w io.Writer, leads []model.Lead) error {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(leads))}
	for _, l := range leads {
		if l.Latitude == nil || l.Longitude == nil {
			continue
		}
		pt := geom.NewPointFlat(geom.XY, []float64{*l.Longitude, *l.Latitude})
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         l.ID,
			Geometry:   pt,
			Properties: properties(l),
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "export: geojson encode")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: geojson write")
	}
	return nil
}

func properties(l model.Lead) map[string]interface{} {
	props := map[string]interface{}{
		"name":         model.Display(l.Name),
		"category":     model.Display(l.Category),
		"score":        l.Score,
		"tier":         scorer.Tier(l.Score),
		"emails":       l.Emails,
		"email_status": string(l.EmailStatus),
		"phone":        model.Display(l.Phone),
		"website":      model.Display(l.Website),
		"address":      model.Display(l.Address),
	}
	if l.Emails == nil {
		props["emails"] = []string{}
	}
	for _, p := range model.AllPlatforms() {
		if u := l.Social[p]; u != "" {
			props[string(p)] = u
		}
	}
	return props
}
