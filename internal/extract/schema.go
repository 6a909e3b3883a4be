// Package extract detects which results table a terminal page carries and
// turns it into rows of a uniform width.
package extract

// Layout names a results table variant.
type Layout string

// Recognized layouts, in detection priority order for entity pages.
const (
	LayoutList     Layout = "list"
	LayoutMajority Layout = "majority"
	LayoutDistrict Layout = "district"
)

// Ballot labels written in the voting scheme column.
const (
	LabelList     = "listes électorales"
	LabelMajority = "scrutin majoritaire"
)

// DistrictColumn is the key column prepended to flat district tables.
const DistrictColumn = "Circonscription"

const (
	// majorityStride is the cell count of one majority-ballot candidate.
	majorityStride = 5
	// listTailWidth is the widest list-ballot record: list head, votes,
	// two percentages, municipal seats and community seats.
	listTailWidth = 6
)

// MunicipalColumns is the canonical schema of list and majority rows. The
// first two columns form the location key.
var MunicipalColumns = []string{
	"Département",
	"Commune",
	"Type de scrutin",
	"Candidats",
	"Voix",
	"% Inscrits",
	"% Exprimés",
	"Elu(e)",
	"Liste conduite par",
	"Voix",
	"% inscrits",
	"% exprimés",
	"Sièges au conseil municipal / conseil de secteur",
	"Sièges au conseil communautaire",
}

// municipalKeyColumns is the width of the location key in MunicipalColumns.
const municipalKeyColumns = 2

// Locator names one table or banner element by tag and class.
type Locator struct {
	Tag   string
	Class string
}

// Locators groups every element the extractor looks for.
type Locators struct {
	Banner        Locator
	BannerHeading string
	ListTable     Locator
	MajorityTable Locator
	DistrictTable Locator
}

// DefaultLocators matches the markup of elections.interieur.gouv.fr.
var DefaultLocators = Locators{
	Banner:        Locator{Tag: "div", Class: "row-fluid pub-resultats-entete"},
	BannerHeading: "h3",
	ListTable:     Locator{Tag: "table", Class: "table table-bordered tableau-resultats-listes"},
	MajorityTable: Locator{Tag: "table", Class: "table table-bordered tableau-resultats-maj"},
	DistrictTable: Locator{Tag: "table"},
}
