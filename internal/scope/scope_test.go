package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepartment(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw      string
		wantCode string
		wantPath string
		wantErr  bool
	}{
		{raw: "1", wantCode: "1", wantPath: "001"},
		{raw: "01", wantCode: "1", wantPath: "001"},
		{raw: "69", wantCode: "69", wantPath: "069"},
		{raw: " 75 ", wantCode: "75", wantPath: "075"},
		{raw: "2A", wantCode: "2A", wantPath: "02A"},
		{raw: "2b", wantCode: "2B", wantPath: "02B"},
		{raw: "971", wantCode: "971", wantPath: "971"},
		{raw: "988", wantCode: "988", wantPath: "988"},
		{raw: "20", wantErr: true},
		{raw: "96", wantErr: true},
		{raw: "977", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "2C", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "lyon", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseDepartment(tc.raw)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDepartment, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.wantCode, got.Code, tc.raw)
		assert.Equal(t, tc.wantPath, got.Path, tc.raw)
	}
}

func TestDepartmentsList(t *testing.T) {
	t.Parallel()
	list := Departments()
	assert.Len(t, list, 19+2+75+6+1)
	assert.Equal(t, "1", list[0])
	assert.Equal(t, "2A", list[19])
	assert.Equal(t, "988", list[len(list)-1])
	assert.NotContains(t, list, "20")
}

func TestRootURL(t *testing.T) {
	t.Parallel()
	const base = "https://elections.interieur.gouv.fr/municipales-2020"

	lyon, err := ParseDepartment("69")
	require.NoError(t, err)
	u, err := lyon.RootURL(base)
	require.NoError(t, err)
	assert.Equal(t, base+"/069/index.html", u)

	corse, err := ParseDepartment("2A")
	require.NoError(t, err)
	u, err = corse.RootURL(base + "/")
	require.NoError(t, err)
	assert.Equal(t, base+"/02A/index.html", u)

	paris, err := ParseDepartment("75")
	require.NoError(t, err)
	assert.True(t, paris.IsParis())
	u, err = paris.RootURL(base)
	require.NoError(t, err)
	assert.Equal(t, base+"/075/075056.html", u)
}

func TestValidateFileName(t *testing.T) {
	t.Parallel()
	for _, ok := range []string{"lyon", "rhone_2020", "dep-69", "A1"} {
		assert.NoError(t, ValidateFileName(ok), ok)
	}
	for _, bad := range []string{"", "lyon.xlsx", "../etc", "a b", "é", "a/b"} {
		assert.ErrorIs(t, ValidateFileName(bad), ErrInvalidFileName, bad)
	}
}
