package extract

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/markup"
)

const locationSeparator = " - "

// ParseLocation splits a results banner such as "Rhône (69) - Marcy" into
// area and sub-area. Anything other than exactly two parts is rejected.
func ParseLocation(banner string) (election.LocationKey, error) {
	parts := strings.Split(markup.StripControl(banner), locationSeparator)
	if len(parts) != 2 {
		return election.LocationKey{}, fmt.Errorf("banner %q has %d parts: %w",
			strings.TrimSpace(banner), len(parts), election.ErrMalformedLocation)
	}
	key := election.LocationKey{
		Area:    strings.TrimSpace(parts[0]),
		SubArea: strings.TrimSpace(parts[1]),
	}
	if key.Area == "" || key.SubArea == "" {
		return election.LocationKey{}, fmt.Errorf("banner %q has an empty part: %w",
			strings.TrimSpace(banner), election.ErrMalformedLocation)
	}
	return key, nil
}

func (e *Extractor) location(doc *markup.Document) (election.LocationKey, error) {
	loc := e.locators
	banner, ok := doc.FindUnique(loc.Banner.Tag, loc.Banner.Class)
	if !ok {
		return election.LocationKey{}, fmt.Errorf("results banner %s: %w",
			markup.Selector(loc.Banner.Tag, loc.Banner.Class), election.ErrStructureNotFound)
	}
	heading, ok := banner.FindUnique(loc.BannerHeading, "")
	if !ok {
		return election.LocationKey{}, fmt.Errorf("results banner heading %s: %w",
			loc.BannerHeading, election.ErrStructureNotFound)
	}
	return ParseLocation(heading.RawText())
}
