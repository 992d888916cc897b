package pipeline

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/sells-group/lead-cli/internal/contact"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/weburl"
)

// DefaultPhoneRegion is used to parse numbers without a country prefix.
const DefaultPhoneRegion = "US"

// NewLead builds a lead from a POI record. The website is normalized, the
// phone is formatted as E.164 when it parses for region, and the record's
// email tag seeds the email list.
func NewLead(rec model.RawRecord, region string) model.Lead {
	l := model.Lead{
		ID:          rec.Key(),
		Name:        rec.Name,
		Category:    rec.Category,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Address:     rec.Address,
		Website:     website(rec.Website),
		Phone:       phone(rec.Phone, region),
		Social:      model.SocialLinks{},
		EmailStatus: model.EmailUnchecked,
	}
	if rec.Email != nil {
		for _, e := range splitMulti(*rec.Email) {
			if contact.ValidEmail(e) {
				l.AddEmail(e)
			}
		}
	}
	return l
}

func website(raw *string) *string {
	if raw == nil {
		return nil
	}
	if strings.TrimSpace(*raw) == "" {
		return model.Text("")
	}
	u, ok := weburl.Normalize(*raw)
	if !ok {
		return nil
	}
	return model.Text(u)
}

// phone keeps the original value when no segment parses.
func phone(raw *string, region string) *string {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return model.Text("")
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	for _, part := range splitMulti(s) {
		if p, ok := normalizePhone(part, region); ok {
			return model.Text(p)
		}
	}
	return model.Text(s)
}

func normalizePhone(raw, region string) (string, bool) {
	number, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return "", false
	}
	return phonenumbers.Format(number, phonenumbers.E164), true
}

// splitMulti splits OSM multi-value tags ("a;b", "a, b").
func splitMulti(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// uniqueRecords drops repeated OSM elements, keeping the first.
func uniqueRecords(recs []model.RawRecord) []model.RawRecord {
	seen := make(map[string]struct{}, len(recs))
	out := make([]model.RawRecord, 0, len(recs))
	for _, r := range recs {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
