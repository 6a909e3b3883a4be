package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/election-results-scraper/internal/election"
)

func TestParseLocation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		banner  string
		want    election.LocationKey
		wantErr bool
	}{
		{name: "plain", banner: "Rhône (69) - Marcy", want: election.LocationKey{Area: "Rhône (69)", SubArea: "Marcy"}},
		{name: "control characters", banner: "\n\t\tRhône (69) - Lyon 1er secteur\n\t", want: election.LocationKey{Area: "Rhône (69)", SubArea: "Lyon 1er secteur"}},
		{name: "hyphenated name", banner: "Ain (01) - Saint-Denis-lès-Bourg", want: election.LocationKey{Area: "Ain (01)", SubArea: "Saint-Denis-lès-Bourg"}},
		{name: "no separator", banner: "Rhône (69)", wantErr: true},
		{name: "two separators", banner: "Rhône (69) - Lyon - 1er secteur", wantErr: true},
		{name: "empty part", banner: "Rhône (69) - ", wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLocation(tc.banner)
			if tc.wantErr {
				require.ErrorIs(t, err, election.ErrMalformedLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
