package processor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/internal/domain"
	"github.com/allanpk716/docfill/pkg/ooxml/ooxmltest"
)

func estimationShapes() []string {
	return []string{
		ooxmltest.Picture(10, "ESTIMATION_HISTO_MASK", "", 0, 0, 2000, 1000),
		ooxmltest.Picture(11, "MAP_MASK", "fit=contain", 0, 0, 1000, 1000),
		ooxmltest.MaskShape(12, "VISITE_1_MASK", 0, 0, 1000, 1000),
		ooxmltest.MaskShape(13, "VISITE_2_MASK", 0, 0, 1000, 1000),
	}
}

func TestInspect_Severity(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		slides   []string
		severity Severity
		unknown  []string
		missing  []string
	}{
		{
			name:     "complete template",
			slides:   append(estimationShapes(), ooxmltest.TextShape(2, "T", []string{"[[ADRESSE]] [[TRANSPORT_METRO_TEXTE]]"})),
			severity: SeverityOK,
		},
		{
			name:     "unknown token",
			slides:   append(estimationShapes(), ooxmltest.TextShape(2, "T", []string{"[[ADRESSE]] [[INCONNU]]"})),
			severity: SeverityWarn,
			unknown:  []string{"INCONNU"},
		},
		{
			name:     "missing shape",
			slides:   []string{ooxmltest.TextShape(2, "T", []string{"[[INCONNU]]"}), estimationShapes()[0]},
			severity: SeverityKO,
			unknown:  []string{"INCONNU"},
			missing:  []string{"MAP_MASK", "VISITE_1_MASK", "VISITE_2_MASK"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := ooxmltest.NewPptx(tt.slides...).WriteFile(t, dir, tt.name+".pptx")
			in, err := Inspect(tpl, InspectOptions{Kind: domain.KindEstimation})
			require.NoError(t, err)

			assert.Equal(t, tt.severity, in.Severity)
			assert.Equal(t, tt.severity != SeverityKO, in.OK)
			assert.Equal(t, tt.unknown, in.UnknownTokens)
			assert.Equal(t, tt.missing, in.MissingShapes)
			assert.Equal(t, "pptx", in.Format)
		})
	}
}

func TestInspect_SlotsAndTokens(t *testing.T) {
	dir := t.TempDir()
	tpl := ooxmltest.NewPptx(
		ooxmltest.TextShape(2, "T", []string{"[[B]] [[", "A]] [[B]]"}),
		ooxmltest.Picture(3, "PHOTO_1", "fit=stretch", 0, 0, 2000, 1000),
	).WriteFile(t, dir, "raw.pptx")

	in, err := Inspect(tpl, InspectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "raw", in.Kind)
	assert.Equal(t, []string{"A", "B"}, in.Tokens)
	assert.Empty(t, in.UnknownTokens, "raw 类型没有已知占位符列表")
	assert.Equal(t, SeverityOK, in.Severity)

	var photo *SlotInfo
	for i := range in.Slots {
		if in.Slots[i].Label == "PHOTO_1" {
			photo = &in.Slots[i]
		}
	}
	require.NotNil(t, photo)
	assert.Equal(t, "stretch", photo.Fit)
	assert.Equal(t, "picture", photo.Kind)
}

func TestInspect_WithMapping(t *testing.T) {
	dir := t.TempDir()
	tpl := ooxmltest.NewDocx(ooxmltest.WordParagraph("«Nom» «Ville» «Mail»")).WriteFile(t, dir, "mandat.docx")

	m := domain.NewMapping()
	m.Set("Nom", "Dupont")
	m.Set("Ville", " ")

	in, err := Inspect(tpl, InspectOptions{Kind: domain.KindMandate, Mapping: m})
	require.NoError(t, err)
	require.NotNil(t, in.Audit)
	assert.Equal(t, []string{"Mail"}, in.Audit.Missing)
	assert.Equal(t, []string{"Ville"}, in.Audit.Empty)
	assert.Equal(t, []string{"Nom"}, in.Audit.OK)
	assert.Equal(t, []string{"Mail"}, in.UnknownTokens)
	assert.Equal(t, SeverityWarn, in.Severity)
}

func TestInspect_Errors(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "absent.pptx"), InspectOptions{})
	var loadErr *domain.TemplateLoadError
	assert.ErrorAs(t, err, &loadErr)

	_, err = Inspect("x.pptx", InspectOptions{Kind: "facture"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
}
