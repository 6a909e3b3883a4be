package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/election-results-scraper/internal/clock"
	"github.com/JakeFAU/election-results-scraper/internal/dataset"
	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/extract"
	"github.com/JakeFAU/election-results-scraper/internal/fetcher"
	"github.com/JakeFAU/election-results-scraper/internal/hash/sha256"
	"github.com/JakeFAU/election-results-scraper/internal/notify/memory"
	"github.com/JakeFAU/election-results-scraper/internal/output"
	fx "github.com/JakeFAU/election-results-scraper/internal/sitefixture"
	"github.com/JakeFAU/election-results-scraper/internal/storage/local"
	"github.com/JakeFAU/election-results-scraper/internal/walker"
)

const dep = fx.Base + "/069/"

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() (string, error) { return f.id, nil }

type fakeRows struct {
	runID string
	rows  int
	err   error
}

func (f *fakeRows) SaveRun(_ context.Context, runID string, ds *dataset.Dataset) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.runID = runID
	f.rows = ds.Len()
	return int64(ds.Len()), nil
}

type failingNotifier struct{ err error }

func (f failingNotifier) Publish(context.Context, any, map[string]string) (string, error) {
	return "", f.err
}

var listHeader = []string{"Liste conduite par", "Voix", "% inscrits", "% exprimés", "Sièges CM", "Sièges CC"}

func rhoneSite() *fx.Site {
	return fx.New().
		Add(dep+"index.html", fx.DepartmentIndex("069A.html", "069L.html", "069M.html")).
		Add(dep+"069A.html", fx.LetterIndex(
			fx.Commune{Name: "Affoux", Href: "../069/069001.html"},
			fx.Commune{Name: "Ancy"},
		)).
		Fail(dep+"069L.html", errors.New("connection reset by peer")).
		Add(dep+"069M.html", fx.LetterIndex(
			fx.Commune{Name: "Lyon", Href: "../069/069123.html"},
			fx.Commune{Name: "Marcy", Href: "../069/069127.html"},
			fx.Commune{Name: "Meys", Href: "../069/069131.html"},
		)).
		Add(dep+"069001.html", fx.MajorityResults("Rhône (69) - Affoux",
			[]string{"M. Paul A", "120", "50,00", "60,00", "Oui"},
			[]string{"Mme Rose B", "80", "33,00", "40,00", "Non"},
		)).
		Add(dep+"069123.html", fx.SectorIndex("../069/069123SR01.html", "../069/069123SR02.html")).
		Add(dep+"069123SR01.html", fx.ListResults("Rhône (69) - Lyon 1er secteur", listHeader,
			[]string{"M. Jean X", "5000", "20,00", "51,00", "8", "2"},
		)).
		Add(dep+"069123SR02.html", fx.ListResults("Rhône (69) - Lyon 2ème secteur", listHeader,
			[]string{"Mme Ana Y", "4000", "18,00", "49,00", "7", "1"},
		)).
		Add(dep+"069127.html", fx.ListResults("Rhône (69) - Marcy", listHeader[:5],
			[]string{"M. Pierre DUPONT", "412", "30,12", "55,01", "12"},
		)).
		Add(dep+"069131.html", `<html><body><p>Résultats non disponibles</p></body></html>`)
}

func newRunner(t *testing.T, site *fx.Site, deps Deps) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := local.New(local.Config{Dir: dir})
	require.NoError(t, err)
	deps.Loader = fetcher.NewLoader(site, nil)
	deps.Extractor = extract.NewDefault()
	deps.IDs = fixedIDs{id: "run-1"}
	deps.Writer = output.NewWriter(output.CSV{}, store, nil)
	r, err := NewRunner(deps)
	require.NoError(t, err)
	return r, dir
}

func municipal(t *testing.T) walker.Hierarchy {
	t.Helper()
	h, err := walker.Municipal(fx.Base, []string{"069/069123.html", "075/075056.html"}, "")
	require.NoError(t, err)
	return h
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	// #nosec G304 -- test reads from the controlled temp directory.
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunMunicipalDepartment(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{}
	notifier := memory.New()
	extra := diagnostics.NewRecorder()
	r, dir := newRunner(t, rhoneSite(), Deps{Rows: rows, Notifier: notifier, Diagnostics: extra})

	summary, err := r.Run(context.Background(), Job{
		Hierarchy: municipal(t),
		RootURL:   dep + "index.html",
		Target:    "69",
		Name:      "rhone",
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, "municipales", summary.Hierarchy)
	assert.Equal(t, 5, summary.TerminalPages)
	assert.Equal(t, 4, summary.Extracted)
	assert.Equal(t, 5, summary.Rows)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, filepath.Join(dir, "rhone.csv"), summary.Output)

	records := readCSV(t, filepath.Join(dir, "rhone.csv"))
	require.Len(t, records, 6)
	assert.Equal(t, extract.MunicipalColumns, records[0])
	var communes []string
	for _, rec := range records[1:] {
		require.Len(t, rec, len(extract.MunicipalColumns))
		communes = append(communes, rec[1])
	}
	assert.Equal(t, []string{"Affoux", "Affoux", "Lyon 1er secteur", "Lyon 2ème secteur", "Marcy"}, communes)
	assert.Equal(t, []string{"Rhône (69)", "Marcy", extract.LabelList, "", "", "", "", "",
		"M. Pierre DUPONT", "412", "30,12", "55,01", "12", ""}, records[5])

	diags := readCSV(t, filepath.Join(dir, "rhone_diagnostics.csv"))
	require.Len(t, diags, 3)
	assert.Equal(t, dep+"069L.html", diags[1][0])
	assert.Equal(t, "transport", diags[1][3])
	assert.Equal(t, dep+"069131.html", diags[2][0])
	assert.Equal(t, "structure", diags[2][3])
	assert.Equal(t, 2, extra.Len())

	assert.Equal(t, "run-1", rows.runID)
	assert.Equal(t, 5, rows.rows)
	assert.Equal(t, int64(5), summary.StoredRows)
	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(filepath.Join(dir, "rhone.csv"))
	require.NoError(t, err)
	assert.Equal(t, sha256.Hex(data), summary.OutputSHA256)
	assert.Equal(t, len(data), summary.OutputBytes)
	assert.Equal(t, filepath.Join(dir, "rhone_diagnostics.csv"), summary.Diagnostics)

	msgs := notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "run-1", msgs[0].Payload.(Summary).RunID)
	assert.Equal(t, "municipales", msgs[0].Attributes["hierarchy"])
}

func TestRunEntity(t *testing.T) {
	t.Parallel()
	site := fx.New().
		Add(fx.Base+"/075/075056.html", fx.SectorIndex("../075/075056SR01.html")).
		Add(fx.Base+"/075/075056SR01.html", fx.ListResults("Paris (75) - Paris 1er secteur", listHeader[:4],
			[]string{"Mme Z", "3000", "25,00", "52,00"},
		))
	r, dir := newRunner(t, site, Deps{})

	summary, err := r.Run(context.Background(), Job{
		Hierarchy: municipal(t),
		RootURL:   fx.Base + "/075/075056.html",
		Entity:    true,
		Target:    "75",
		Name:      "paris",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rows)
	records := readCSV(t, filepath.Join(dir, "paris.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, "Paris 1er secteur", records[1][1])
}

func TestRunDistricts(t *testing.T) {
	t.Parallel()
	root := fx.Base + "/legislatives/index.html"
	site := fx.New().
		Add(root, fx.SelectIndex("001/index.html")).
		Add(fx.Base+"/legislatives/001/index.html", fx.SelectIndex("00101.html", "00102.html")).
		Add(fx.Base+"/legislatives/001/00101.html", fx.DistrictResults(
			[]string{"Candidats", "Voix"}, []string{"M. A", "100"})).
		Add(fx.Base+"/legislatives/001/00102.html", fx.DistrictResults(
			[]string{"Candidats", "Nuance", "Voix"}, []string{"Mme B", "DVD", "90"}))
	r, dir := newRunner(t, site, Deps{Workers: 2})

	summary, err := r.Run(context.Background(), Job{Hierarchy: walker.Districts(), RootURL: root, Name: "leg"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rows)

	records := readCSV(t, filepath.Join(dir, "leg.csv"))
	assert.Equal(t, []string{extract.DistrictColumn, "Candidats", "Voix", "Nuance"}, records[0])
	assert.Equal(t, []string{"00101", "M. A", "100", ""}, records[1])
	assert.Equal(t, []string{"00102", "Mme B", "90", "DVD"}, records[2])
}

func TestRunRootFailure(t *testing.T) {
	t.Parallel()
	notifier := memory.New()
	r, dir := newRunner(t, fx.New(), Deps{Notifier: notifier})

	_, err := r.Run(context.Background(), Job{Hierarchy: municipal(t), RootURL: dep + "index.html", Name: "rhone"})
	require.Error(t, err)
	assert.Equal(t, election.ReasonTransport, election.Classify(err))
	assert.NoFileExists(t, filepath.Join(dir, "rhone.csv"))
	assert.Empty(t, notifier.Messages())
}

func TestRunRowSinkFailure(t *testing.T) {
	t.Parallel()
	r, _ := newRunner(t, rhoneSite(), Deps{Rows: &fakeRows{err: errors.New("connection refused")}})

	summary, err := r.Run(context.Background(), Job{Hierarchy: municipal(t), RootURL: dep + "index.html", Name: "rhone"})
	require.ErrorContains(t, err, "connection refused")
	assert.NotEmpty(t, summary.Output)
}

func TestRunNotifierFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	r, _ := newRunner(t, rhoneSite(), Deps{Notifier: failingNotifier{err: errors.New("topic deleted")}})

	_, err := r.Run(context.Background(), Job{Hierarchy: municipal(t), RootURL: dep + "index.html", Name: "rhone"})
	require.NoError(t, err)
}

func TestRunWritesMetricsTextfile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "elections.prom")
	r, _ := newRunner(t, rhoneSite(), Deps{MetricsTextfile: path})

	_, err := r.Run(context.Background(), Job{Hierarchy: municipal(t), RootURL: dep + "index.html", Name: "rhone"})
	require.NoError(t, err)
	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "elections_runs_total")
}

func TestRunDuration(t *testing.T) {
	t.Parallel()
	start := time.Date(2020, 3, 15, 20, 0, 0, 0, time.UTC)
	r, _ := newRunner(t, rhoneSite(), Deps{Clock: clock.NewStepped(start, time.Second)})

	summary, err := r.Run(context.Background(), Job{Hierarchy: municipal(t), RootURL: dep + "index.html", Name: "rhone"})
	require.NoError(t, err)
	assert.Equal(t, start, summary.StartedAt)
	assert.Equal(t, time.Second, summary.Duration)
}

func TestNewRunnerRequiresDeps(t *testing.T) {
	t.Parallel()
	_, err := NewRunner(Deps{})
	require.Error(t, err)
}
