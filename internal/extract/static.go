// Package extract turns an item page into record fields. Both channels are
// tolerant: a field that cannot be found is left unset, never reported as an
// error.
package extract

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/scentcrawl/internal/site"
	"github.com/law-makers/scentcrawl/pkg/models"
	"golang.org/x/net/html"
)

const (
	brandSelector      = "h6"
	familySelector     = `p[class*="text-center"]`
	perfumerSelector   = "dd[aria-label]"
	ingredientsBlock   = "div.flex.invisible.gap-2.flex-wrap.mb-6"
	priceMarkerElement = `span[class*="text-black"]`
	priceMarkerGlyph   = "$"
)

// StaticRecord holds the fields read from rendered HTML. Empty strings and
// TierUnset mean not found.
type StaticRecord struct {
	Brand       string
	Family      string
	Subfamily   string
	Perfumer    string
	Ingredients []string
	PriceTier   models.PriceTier
}

// Record flattens r into dataset keys. Unset fields are omitted; Ingredients
// is always present.
func (r StaticRecord) Record() models.Record {
	rec := models.Record{}
	set := func(key, v string) {
		if v != "" {
			rec[key] = v
		}
	}
	set(site.KeyBrand, r.Brand)
	set(site.KeyFamily, r.Family)
	set(site.KeySubfamily, r.Subfamily)
	set(site.KeyPerfumer, r.Perfumer)
	set(site.KeyPriceTier, string(r.PriceTier))

	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	rec[site.KeyIngredients] = ingredients
	return rec
}

// Static extracts every static field from a rendered item page. Each field
// is looked up independently.
func Static(page string) StaticRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return StaticRecord{Ingredients: []string{}}
	}

	family, subfamily := Families(doc)
	return StaticRecord{
		Brand:       Brand(doc),
		Family:      family,
		Subfamily:   subfamily,
		Perfumer:    Perfumer(doc),
		Ingredients: Ingredients(doc),
		PriceTier:   PriceTier(doc),
	}
}

// Brand is the text of the first h6
func Brand(doc *goquery.Document) string {
	return NormalizedText(doc.Find(brandSelector).First())
}

// Families returns the first two centered paragraphs written in capitals
func Families(doc *goquery.Document) (family, subfamily string) {
	var found []string
	doc.Find(familySelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if t := NormalizedText(sel); isCapitalized(t) {
			found = append(found, t)
		}
		return len(found) < 2
	})
	if len(found) > 0 {
		family = found[0]
	}
	if len(found) > 1 {
		subfamily = found[1]
	}
	return family, subfamily
}

// Perfumer is the first non-empty aria-label on a dd element
func Perfumer(doc *goquery.Document) string {
	var name string
	doc.Find(perfumerSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name, _ = sel.Attr("aria-label")
		return name == ""
	})
	return name
}

// Ingredients lists the anchor and span labels in the ingredients block. An
// absent or empty block yields an empty, non-nil list.
func Ingredients(doc *goquery.Document) []string {
	out := []string{}
	doc.Find(ingredientsBlock).First().Find("a, span").Each(func(_ int, sel *goquery.Selection) {
		for _, n := range sel.Nodes {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.TextNode {
					continue
				}
				if t := strings.TrimSpace(c.Data); t != "" {
					out = append(out, t)
				}
			}
		}
	})
	return out
}

// PriceTier decodes the number of black "$" markers
func PriceTier(doc *goquery.Document) models.PriceTier {
	count := 0
	doc.Find(priceMarkerElement).Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() == 0 && strings.TrimSpace(sel.Text()) == priceMarkerGlyph {
			count++
		}
	})
	return TierFromCount(count)
}

// TierFromCount maps 1, 2 and 3 markers to their tier; any other count is unset.
func TierFromCount(n int) models.PriceTier {
	switch n {
	case 1:
		return models.TierMassMarket
	case 2:
		return models.TierPrestige
	case 3:
		return models.TierNiche
	default:
		return models.TierUnset
	}
}

// NormalizedText joins every text node under sel with single spaces so markup
// boundaries never glue words together.
func NormalizedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// isCapitalized reports whether the letters of s exist and are all upper case
func isCapitalized(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.ToUpper(r) != r {
			return false
		}
	}
	return letters > 0
}
