package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/internal/catalog"
	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/internal/history"
	"github.com/allanpk716/docfill/internal/processor"
	"github.com/allanpk716/docfill/internal/report"
	"github.com/allanpk716/docfill/pkg/ooxml/ooxmltest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_GenerateAndHistory(t *testing.T) {
	t.Setenv(EnvStrict, "")
	dir := t.TempDir()
	ooxmltest.NewDocx(ooxmltest.WordParagraph("Nom : [[NOM]]")).WriteFile(t, dir, "modele.docx")
	jobFile := writeRawJob(t, dir, "job.yaml", "modele.docx", "resultat.docx")
	dsn := filepath.Join(dir, "history.db")

	out, err := execute(t, "generate", jobFile, "--history", dsn, "--format", "json")
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.OK)
	assert.Equal(t, report.StateWritten, rep.State)
	assert.FileExists(t, filepath.Join(dir, "resultat.docx"))

	out, err = execute(t, "history", "--history", dsn, "-f", "json")
	require.NoError(t, err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, rep.GenerationID, entries[0].GenerationID)

	out, err = execute(t, "history", rep.GenerationID, "--history", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] raw")

	_, err = execute(t, "history", "inconnu", "--history", dsn)
	assert.ErrorContains(t, err, "没有找到生成记录")
}

func TestRootCmd_GenerateStrictBlocked(t *testing.T) {
	dir := t.TempDir()
	ooxmltest.NewDocx(ooxmltest.WordParagraph("[[NOM]] [[VILLE]]")).WriteFile(t, dir, "modele.docx")
	jobFile := writeRawJob(t, dir, "job.yaml", "modele.docx", "resultat.docx")

	out, err := execute(t, "generate", jobFile, "--strict")
	assert.ErrorIs(t, err, domain.ErrStrictBlocked)
	assert.Contains(t, out, "[BLOCKED]")
	assert.Contains(t, out, "VILLE")
	assert.NoFileExists(t, filepath.Join(dir, "resultat.docx"))
}

func TestRootCmd_Batch(t *testing.T) {
	dir := t.TempDir()
	ooxmltest.NewDocx(ooxmltest.WordParagraph("[[NOM]]")).WriteFile(t, dir, "modele.docx")
	writeRawJob(t, dir, "a.yaml", "modele.docx", "out/a.docx")
	writeRawJob(t, dir, "b.yaml", "absent.docx", "out/b.docx")

	out, err := execute(t, "batch", dir, "-j", "2")
	assert.ErrorContains(t, err, "1/2 个任务失败")
	assert.Contains(t, out, "a.yaml: [OK]")
	assert.Contains(t, out, "b.yaml: 失败")
}

func TestRootCmd_Inspect(t *testing.T) {
	dir := t.TempDir()
	tpl := ooxmltest.NewPptx(
		ooxmltest.TextShape(2, "T", []string{"[[ADRESSE]] [[INCONNU]]"}),
	).WriteFile(t, dir, "Estimation.pptx")

	out, err := execute(t, "inspect", tpl, "--kind", "estimation", "-f", "json")
	require.NoError(t, err)
	var in processor.Inspection
	require.NoError(t, json.Unmarshal([]byte(out), &in))
	assert.Equal(t, processor.SeverityKO, in.Severity)
	assert.Equal(t, []string{"INCONNU"}, in.UnknownTokens)

	out, err = execute(t, "inspect", tpl, "--kind", "estimation", "--strict")
	assert.ErrorIs(t, err, domain.ErrStrictBlocked)
	assert.Contains(t, out, "[KO]")
}

func TestRootCmd_Templates(t *testing.T) {
	templates := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(templates, "mandat", "md"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templates, "mandat", "md", "Mandat MD.docx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templates, "mandat", "Mandat CD.docx"), []byte("x"), 0o644))

	out, err := execute(t, "templates", "mandat", "--templates", templates, "--stay", "md", "-f", "json")
	require.NoError(t, err)
	var listed []catalog.Template
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Mandat MD.docx", listed[0].Label)

	out, err = execute(t, "templates", "mandate", "--templates", templates)
	require.NoError(t, err)
	assert.Contains(t, out, "Mandat CD.docx\trepo\t")

	_, err = execute(t, "templates", "facture")
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
}

func TestRootCmd_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.yaml")

	out, err := execute(t, "init", "book", path)
	require.NoError(t, err)
	assert.Contains(t, out, "已生成示例任务")
	assert.FileExists(t, path)

	_, err = execute(t, "init", "book", path)
	assert.Error(t, err, "不覆盖已有文件")
}

func TestRootCmd_InvalidFormat(t *testing.T) {
	_, err := execute(t, "templates", "book", "-f", "xml")
	assert.ErrorContains(t, err, "不支持的输出格式")
}
