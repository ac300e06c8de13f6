package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/mapping"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func labels(ts []Template) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Label)
	}
	return out
}

func envOf(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.pptx", "A.PPTX", "~$a.pptx", "notes.txt", "c.docx")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pptx"), 0o755))

	ts, err := ListDir(dir, ".pptx", SourceRepo)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.PPTX", "b.pptx"}, labels(ts))
	assert.Equal(t, filepath.Join(dir, "A.PPTX"), ts[0].Path)

	ts, err = ListDir(filepath.Join(dir, "absent"), ".pptx", SourceRepo)
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestCatalog_RepoTakesPriority(t *testing.T) {
	repo := t.TempDir()
	env := t.TempDir()
	touch(t, filepath.Join(repo, "book"), "Book repo.pptx")
	touch(t, env, "Book env.pptx")

	c := New(repo).WithEnv(envOf(map[string]string{EnvBookDir: env}))
	ts, err := c.List(domain.KindBook)
	require.NoError(t, err)
	assert.Equal(t, []string{"Book repo.pptx"}, labels(ts))
	assert.Equal(t, SourceRepo, ts[0].Source)
}

func TestCatalog_FallbackToEnv(t *testing.T) {
	repo := t.TempDir()
	root := t.TempDir()
	touch(t, filepath.Join(root, "estimation"), "Estimation.pptx")
	touch(t, root, "ignored.pptx")

	c := New(repo).WithEnv(envOf(map[string]string{EnvTemplateRoot: root}))
	ts, err := c.List(domain.KindEstimation)
	require.NoError(t, err)
	assert.Equal(t, []string{"Estimation.pptx"}, labels(ts))
	assert.Equal(t, SourceEnv, ts[0].Source)

	_, err = c.List(domain.KindRaw)
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
}

func TestCatalog_ListEstimation(t *testing.T) {
	repo := t.TempDir()
	touch(t, filepath.Join(repo, "estimation", "cd"), "Estimation CD.pptx")
	touch(t, filepath.Join(repo, "estimation", "md"), "Estimation MD.pptx")
	c := New(repo).WithEnv(envOf(nil))

	ts, err := c.ListEstimation(mapping.StayMedium)
	require.NoError(t, err)
	assert.Equal(t, []string{"Estimation MD.pptx"}, labels(ts))

	ts, err = c.ListEstimation(mapping.StayShort)
	require.NoError(t, err)
	assert.Equal(t, []string{"Estimation CD.pptx"}, labels(ts))
}

func TestCatalog_ListMandate(t *testing.T) {
	repo := t.TempDir()
	touch(t, filepath.Join(repo, "mandat"), "Mandat CD.docx", "Mandat bail mobilité.docx", "Autre.docx")
	c := New(repo).WithEnv(envOf(nil))

	ts, err := c.ListMandate(mapping.StayMedium)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mandat bail mobilité.docx"}, labels(ts))

	touch(t, filepath.Join(repo, "mandat", "cd"), "Mandat courte durée v2.docx")
	ts, err = c.ListMandate(mapping.StayShort)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mandat courte durée v2.docx"}, labels(ts))
}

func TestFilterMandate(t *testing.T) {
	ts := []Template{
		{Label: "Mandat MD.docx"},
		{Label: "Mandat Courte Durée.docx"},
		{Label: "Mandat Bail Mobilité.docx"},
		{Label: "mandat_cd_2025.docx"},
	}
	assert.Equal(t, []string{"Mandat MD.docx", "Mandat Bail Mobilité.docx"}, labels(FilterMandate(ts, mapping.StayMedium)))
	assert.Equal(t, []string{"Mandat Courte Durée.docx", "mandat_cd_2025.docx"}, labels(FilterMandate(ts, mapping.StayShort)))
}

func TestCatalog_Find(t *testing.T) {
	repo := t.TempDir()
	touch(t, filepath.Join(repo, "book"), "Book Paris.pptx")
	c := New(repo).WithEnv(envOf(nil))

	tpl, err := c.Find(domain.KindBook, "book paris")
	require.NoError(t, err)
	assert.Equal(t, "Book Paris.pptx", tpl.Label)

	tpl, err = c.Find(domain.KindBook, filepath.Join(repo, "book", "Book Paris.pptx"))
	require.NoError(t, err)
	assert.Equal(t, "Book Paris.pptx", tpl.Label)

	_, err = c.Find(domain.KindBook, "absent")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"12 rue de la Paix, 75002 Paris", "12 rue de la Paix, 75002 Paris"},
		{`a/b\c:d*e?f"g<h>i|j`, "a b c d e f g h i j"},
		{"  fin avec point. ", "fin avec point"},
		{"espaces  insécables", "espaces insécables"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFilename(tt.in), tt.in)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "Estimation - 12 rue Oberkampf.pptx", OutputName("Estimation", "12 rue Oberkampf", "pptx"))
	assert.Equal(t, "Mandat - 3 bd Voltaire.docx", OutputName("Mandat", "3 bd Voltaire", ".docx"))
	assert.Equal(t, "Book.pptx", OutputName("Book", "  ", ".pptx"))
	assert.Equal(t, "document.docx", OutputName("", "", "docx"))
}
