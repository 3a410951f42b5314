package models

// CatalogEntry is one discovered item: its display name as rendered in the
// catalog and the absolute URL of its page. URL is the identity key.
type CatalogEntry struct {
	RawName string `json:"nom_brut"`
	URL     string `json:"url"`
}

// Catalog is the persisted discovery result.
type Catalog struct {
	Entries []CatalogEntry `json:"contenu"`
}

// PriceTier is the category decoded from the price marker count
type PriceTier string

const (
	TierUnset      PriceTier = ""
	TierMassMarket PriceTier = "Mass Market"
	TierPrestige   PriceTier = "Prestige"
	TierNiche      PriceTier = "Niche"
)

// Record is a flat attribute map for one item. A key that is absent means
// the value was never found; it is never defaulted.
type Record map[string]any

// Dataset is the persisted output of a full scrape.
type Dataset struct {
	Records []Record `json:"contenu"`
}
