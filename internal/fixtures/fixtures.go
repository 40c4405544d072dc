// Package fixtures holds the development data set loaded by catalog-seed and
// the end-to-end tests.
package fixtures

import "github.com/jacentio/chips-catalog/catalog"

// Fixed identifiers of the fixture items, grouped by the tests that use them.
const (
	// Read-only.
	AlphaID = "000000000000000000000001"
	BetaID  = "000000000000000000000002"
	GammaID = "000000000000000000000003"

	// Updated.
	DeltaID = "000000000000000000000040"

	// Deleted.
	EpsilonID = "000000000000000000000050"

	// Free for manual use.
	PhiID = "000000000000000000000060"
)

// Items returns a fresh copy of the fixture items, all at version 0.
func Items() []catalog.Item {
	return []catalog.Item{
		item(AlphaID, "Alpha", "A", catalog.KindPotato, 1, 11.1, 0.011, true, "Klassisch"),
		item(BetaID, "Beta", "B", catalog.KindSweetPotato, 2, 22.2, 0.022, true, "UNGARISCH"),
		item(GammaID, "Gamma", "G", catalog.KindVegetable, 3, 3.33, 0.33, true, "Bio"),
		item(DeltaID, "Delta", "D", catalog.KindLentil, 4, 4.44, 0.04, true, "PAPRIKA"),
		item(EpsilonID, "Epsilon", "E", catalog.KindPotato, 5, 55.5, 0.05, false, "Neu"),
		item(PhiID, "Phi", "P", catalog.KindPotato, 6, 6.66, 0.06, false, "Neu"),
	}
}

func item(id, name, label string, kind catalog.Kind, stock, price, discount float64, available bool, tags ...string) catalog.Item {
	return catalog.Item{
		ID:            id,
		Name:          name,
		CategoryLabel: label,
		Kind:          kind,
		StockQuantity: stock,
		Price:         price,
		DiscountRate:  &discount,
		Available:     &available,
		Tags:          tags,
	}
}
