package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/model"
)

func TestNewLead(t *testing.T) {
	rec := model.RawRecord{
		OSMType:   "node",
		OSMID:     42,
		Name:      model.Text("Blue Bottle"),
		Category:  model.Text("cafe"),
		Website:   model.Text("bluebottle.example"),
		Email:     model.Text("Hello@BlueBottle.example; bad-address"),
		Phone:     model.Text("650-253-0000"),
		Latitude:  model.Float(37.4),
		Longitude: model.Float(-122.1),
	}
	l := NewLead(rec, "us")

	assert.Equal(t, "node/42", l.ID)
	assert.Equal(t, "Blue Bottle", *l.Name)
	assert.Equal(t, "http://bluebottle.example", *l.Website)
	assert.Equal(t, "+16502530000", *l.Phone)
	assert.Equal(t, []string{"hello@bluebottle.example"}, l.Emails)
	assert.Equal(t, model.EmailUnchecked, l.EmailStatus)
	assert.Nil(t, l.Address)
	assert.NotNil(t, l.Social)
}

func TestNewLead_AbsentAndBlank(t *testing.T) {
	l := NewLead(model.RawRecord{OSMType: "way", OSMID: 1}, "")
	assert.Nil(t, l.Website)
	assert.Nil(t, l.Phone)
	assert.Nil(t, l.Name)
	assert.Empty(t, l.Emails)

	l = NewLead(model.RawRecord{Website: model.Text("  "), Phone: model.Text("")}, "")
	require.NotNil(t, l.Website)
	assert.Equal(t, "", *l.Website)
	require.NotNil(t, l.Phone)
	assert.Equal(t, "", *l.Phone)

	l = NewLead(model.RawRecord{Website: model.Text("N/A")}, "")
	assert.Nil(t, l.Website)
}

func TestNewLead_PhoneFallbacks(t *testing.T) {
	l := NewLead(model.RawRecord{Phone: model.Text("call us")}, "US")
	assert.Equal(t, "call us", *l.Phone)

	l = NewLead(model.RawRecord{Phone: model.Text("n/a; +1 650 253 0000")}, "US")
	assert.Equal(t, "+16502530000", *l.Phone)

	l = NewLead(model.RawRecord{Phone: model.Text("+1 650 253 0000")}, "IT")
	assert.Equal(t, "+16502530000", *l.Phone)
}

func TestUniqueRecords(t *testing.T) {
	recs := []model.RawRecord{
		{OSMType: "node", OSMID: 1, Name: model.Text("first")},
		{OSMType: "way", OSMID: 1},
		{OSMType: "node", OSMID: 1, Name: model.Text("second")},
	}
	out := uniqueRecords(recs)
	require.Len(t, out, 2)
	assert.Equal(t, "first", *out[0].Name)
}

func TestSplitMulti(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitMulti(" a; b ,c;; "))
	assert.Empty(t, splitMulti(" ; "))
}
