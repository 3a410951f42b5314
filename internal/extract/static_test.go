package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/scentcrawl/internal/site"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return d
}

func TestBrand(t *testing.T) {
	assert.Equal(t, "Calvin Klein", Brand(doc(t, "<h6>Calvin Klein</h6>")))
	assert.Equal(t, "Calvin Klein", Brand(doc(t, "<h6 class=\"x\">\n  <span>Calvin</span><b>Klein</b>\n</h6><h6>Other</h6>")))
	assert.Equal(t, "", Brand(doc(t, "<h5>Calvin Klein</h5>")))
}

func TestFamilies(t *testing.T) {
	page := `
	<p class="text-center">FLORAL</p>
	<p class="text-center">CITRUS</p>
	`
	family, subfamily := Families(doc(t, page))
	assert.Equal(t, "FLORAL", family)
	assert.Equal(t, "CITRUS", subfamily)
}

func TestFamilies_SkipsMixedCase(t *testing.T) {
	page := `
	<p class="mt-2 text-center">Une fragrance fraîche</p>
	<p class="text-center uppercase">BOISÉ</p>
	<p class="text-center">42</p>
	<p class="text-left">AMBRÉ</p>
	`
	family, subfamily := Families(doc(t, page))
	assert.Equal(t, "BOISÉ", family)
	assert.Equal(t, "", subfamily)
}

func TestPerfumer(t *testing.T) {
	assert.Equal(t, "Alberto Morillas", Perfumer(doc(t, `<dd aria-label="Alberto Morillas"></dd>`)))
	assert.Equal(t, "Harry Fremont", Perfumer(doc(t, `<dd aria-label=""></dd><dd aria-label="Harry Fremont"></dd>`)))
	assert.Equal(t, "", Perfumer(doc(t, `<dd>Alberto Morillas</dd>`)))
}

func TestIngredients(t *testing.T) {
	page := `<div class="flex invisible gap-2 flex-wrap mb-6"><a>bergamote</a><span>citron</span><a>musc</a></div>`
	assert.Equal(t, []string{"bergamote", "citron", "musc"}, Ingredients(doc(t, page)))

	entities := `<div class="flex invisible gap-2 flex-wrap mb-6"><a> fleur d&#39;oranger </a><span> </span><span>th&eacute;</span></div>`
	assert.Equal(t, []string{"fleur d'oranger", "thé"}, Ingredients(doc(t, entities)))
}

func TestIngredients_EmptyIsNotUnset(t *testing.T) {
	empty := Ingredients(doc(t, `<div class="flex invisible gap-2 flex-wrap mb-6"></div>`))
	require.NotNil(t, empty)
	assert.Empty(t, empty)

	missing := Ingredients(doc(t, `<p>nothing here</p>`))
	require.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestPriceTier(t *testing.T) {
	marker := `<span class="text-black">$</span>`
	grey := `<span class="text-gray-300">$</span>`

	tests := []struct {
		count int
		want  models.PriceTier
	}{
		{0, models.TierUnset},
		{1, models.TierMassMarket},
		{2, models.TierPrestige},
		{3, models.TierNiche},
		{4, models.TierUnset},
	}
	for _, tt := range tests {
		page := strings.Repeat(marker, tt.count) + strings.Repeat(grey, 4-min(tt.count, 4))
		assert.Equal(t, tt.want, PriceTier(doc(t, page)), "count %d", tt.count)
		assert.Equal(t, tt.want, TierFromCount(tt.count), "count %d", tt.count)
	}
}

func TestPriceTier_MultilineMarkup(t *testing.T) {
	page := "<div>\n<span\n class=\"font-bold text-black\">$</span>\n<span class=\"text-black\">$</span>\n</div>"
	assert.Equal(t, models.TierPrestige, PriceTier(doc(t, page)))
}

func TestStatic_Record(t *testing.T) {
	page := `<html><body>
	<h6>Calvin Klein</h6>
	<p class="text-center">FLORAL</p>
	<dd aria-label="Alberto Morillas"></dd>
	<div class="flex invisible gap-2 flex-wrap mb-6"><a>bergamote</a></div>
	<span class="text-black">$</span>
	</body></html>`

	rec := Static(page).Record()
	assert.Equal(t, models.Record{
		site.KeyBrand:       "Calvin Klein",
		site.KeyFamily:      "FLORAL",
		site.KeyPerfumer:    "Alberto Morillas",
		site.KeyIngredients: []string{"bergamote"},
		site.KeyPriceTier:   "Mass Market",
	}, rec)
}

func TestStatic_EmptyPage(t *testing.T) {
	rec := Static("").Record()
	assert.Equal(t, models.Record{site.KeyIngredients: []string{}}, rec)
}
