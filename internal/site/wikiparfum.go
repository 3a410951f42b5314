// Package site pins the contract of the one catalog this tool scrapes.
// None of these values are configurable: a change on the site is a code change.
package site

import "github.com/law-makers/scentcrawl/internal/browser"

const (
	BaseURL     = "https://www.wikiparfum.com"
	CatalogPath = "/fr/fragrances/"
	StartURL    = BaseURL + CatalogPath

	// ItemPathPrefix is what every item href starts with.
	ItemPathPrefix = CatalogPath

	// DatasheetPayloadName identifies the technical sheet response envelope.
	DatasheetPayloadName = "DetailDatasheetItems"
)

// LoadMoreControl is the catalog's pagination button.
var LoadMoreControl = browser.Locator{
	Selector: `//button[contains(text(), 'En savoir plus')]`,
	By:       browser.ByXPath,
}

// DatasheetControl opens the technical sheet on an item page.
var DatasheetControl = browser.Locator{
	Selector: `//*[contains(text(), 'Fiche technique')]`,
	By:       browser.ByXPath,
}

// TitleElement holds the fragrance name on an item page.
var TitleElement = browser.Locator{Selector: "h1", By: browser.ByQuery}

// CatalogStoplist holds anchor texts that never name an item (lowercase).
var CatalogStoplist = map[string]struct{}{
	"new":            {},
	"en savoir plus": {},
	"read more":      {},
}

// ReadyMarkers are substrings present once an item page finished rendering.
var ReadyMarkers = []string{"Origine", "ORIGINE", "Ingrédients"}

// Dataset keys produced by the static channel.
const (
	KeyBrand       = "Marque"
	KeyFamily      = "Famille"
	KeySubfamily   = "Sous_famille"
	KeyPerfumer    = "Parfumeur"
	KeyIngredients = "Ingredients"
	KeyPriceTier   = "Prix_Categorie"

	// KeyFragrance is seeded by the dynamic channel from the page title.
	KeyFragrance = "Fragrance"
)
