package extract

import (
	"context"
	"testing"
	"time"

	"github.com/law-makers/scentcrawl/internal/browser"
	"github.com/law-makers/scentcrawl/internal/browser/browsertest"
	"github.com/law-makers/scentcrawl/internal/site"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemURL = "https://www.wikiparfum.com/fr/fragrances/ck-one-essence"

const datasheetPayload = `{
	"name": "DetailDatasheetItems",
	"props": {
		"items": [
			{"props": {"title": "Année", "value": "2023"}},
			{"props": {"title": "Genre", "value": ["Femme", "Homme"]}},
			{"props": {"title": "", "value": "ignored"}},
			{"title": "Concentration", "value": "Parfum"}
		]
	}
}`

func TestParseDatasheet(t *testing.T) {
	rec, err := ParseDatasheet([]byte(datasheetPayload))
	require.NoError(t, err)
	assert.Equal(t, models.Record{
		"Année":         "2023",
		"Genre":         "Femme, Homme",
		"Concentration": "Parfum",
	}, rec)
}

func TestParseDatasheet_NumericListsStayPlain(t *testing.T) {
	rec, err := ParseDatasheet([]byte(`{"name": "DetailDatasheetItems", "props": {"items": [
		{"props": {"title": "Volumes", "value": [1000000, 2019, 12.5, null]}}
	]}}`))
	require.NoError(t, err)
	assert.Equal(t, "1000000, 2019, 12.5", rec["Volumes"])
}

func TestParseDatasheet_Rejects(t *testing.T) {
	_, err := ParseDatasheet([]byte(`{"name": "Other", "props": {"items": []}}`))
	assert.Error(t, err)

	_, err = ParseDatasheet([]byte(`not json`))
	assert.Error(t, err)
}

func TestIsDatasheet(t *testing.T) {
	assert.True(t, IsDatasheet(browser.Response{Body: []byte(datasheetPayload)}))
	assert.False(t, IsDatasheet(browser.Response{Body: []byte(`{"name": "DetailHeader"}`)}))
	assert.False(t, IsDatasheet(browser.Response{Body: []byte(`[1, 2]`)}))
}

func newSheetFake() *browsertest.Fake {
	return &browsertest.Fake{
		Texts: map[string]string{site.TitleElement.Selector: "CK One Essence"},
		Locates: map[string][]browser.Outcome{
			site.DatasheetControl.Selector: {browser.Found},
		},
		Payloads: []browser.Response{
			{URL: "https://api.example/header", Body: []byte(`{"name": "DetailHeader"}`)},
			{URL: "https://api.example/sheet", Body: []byte(datasheetPayload)},
		},
	}
}

func extractFrom(e *DatasheetExtractor, fake *browsertest.Fake) models.Record {
	sub := e.Watch(fake)
	defer sub.Close()
	return e.Extract(context.Background(), fake, sub, itemURL)
}

func TestDatasheetExtractor_Extract(t *testing.T) {
	fake := newSheetFake()
	e := NewDatasheetExtractor(10*time.Millisecond, 50*time.Millisecond)

	rec := extractFrom(e, fake)

	assert.Equal(t, models.Record{
		site.KeyFragrance: "CK One Essence",
		"Année":           "2023",
		"Genre":           "Femme, Homme",
		"Concentration":   "Parfum",
	}, rec)
	assert.Equal(t, 1, fake.ClickCalls())
}

func TestDatasheetExtractor_TitleFallsBackToURL(t *testing.T) {
	fake := newSheetFake()
	fake.Texts = nil
	e := NewDatasheetExtractor(10*time.Millisecond, 50*time.Millisecond)

	rec := extractFrom(e, fake)
	assert.Equal(t, "ck-one-essence", rec[site.KeyFragrance])
}

func TestDatasheetExtractor_NoPayload(t *testing.T) {
	fake := newSheetFake()
	fake.Payloads = nil
	e := NewDatasheetExtractor(10*time.Millisecond, 20*time.Millisecond)

	rec := extractFrom(e, fake)
	assert.NotNil(t, rec)
	assert.Empty(t, rec)
}

func TestDatasheetExtractor_ControlMissing(t *testing.T) {
	fake := newSheetFake()
	fake.Locates = nil
	e := NewDatasheetExtractor(10*time.Millisecond, 20*time.Millisecond)

	rec := extractFrom(e, fake)
	assert.Empty(t, rec)
	assert.Equal(t, 0, fake.ClickCalls())
}

func TestDatasheetExtractor_ClickIntercepted(t *testing.T) {
	fake := newSheetFake()
	fake.Clicks = []browser.Outcome{browser.Intercepted}
	e := NewDatasheetExtractor(10*time.Millisecond, 20*time.Millisecond)

	rec := extractFrom(e, fake)
	assert.Empty(t, rec)
	assert.Equal(t, 1, fake.ClickCalls())
}
