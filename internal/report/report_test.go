package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBuilder_Finish(t *testing.T) {
	b := NewBuilder("gen-1", "estimation", "tpl.pptx")
	b.Replaced("B")
	b.Replaced("A")
	b.Replaced("A")
	b.UnresolvedToken("Z")
	b.UnresolvedToken("Y")
	b.UnresolvedToken("Z")
	b.UnresolvedSlot("PHOTO_1", "aucune image")
	b.Unconsumed("EXTRA", "")
	b.FilledSlot("MAP_MASK")
	b.EmptyValue("NB_SDB")
	b.Note("note")
	b.Note("note")
	b.SetState(StateWritten)
	b.SetOutput("out.pptx")

	r := b.Finish(false)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, r.Replaced)
	assert.Equal(t, 3, r.ReplacedCount())
	assert.Equal(t, []string{"Y", "Z"}, r.UnresolvedTokens)
	assert.Equal(t, []string{"PHOTO_1"}, r.UnresolvedSlots)
	assert.Equal(t, []string{"EXTRA"}, r.UnconsumedEntries)
	assert.Equal(t, []string{"MAP_MASK"}, r.FilledSlots)
	assert.Equal(t, []string{"NB_SDB"}, r.EmptyValues)
	assert.Equal(t, []string{"note"}, r.Notes)
	assert.Len(t, r.Issues, 6)
	assert.Equal(t, StateWritten, r.State)
	assert.Equal(t, "out.pptx", r.Output)
	assert.True(t, r.OK, "非严格模式下缺失项只是提示")
	assert.True(t, r.HasGaps())
	assert.True(t, r.HasWarnings())
}

func TestBuilder_Strict(t *testing.T) {
	b := NewBuilder("gen-2", "book", "tpl.pptx")
	b.Replaced("A")
	assert.False(t, b.Gaps())
	assert.True(t, b.Finish(true).OK)

	b.Unconsumed("PHOTO_9", "槽位不存在")
	assert.True(t, b.Gaps())
	r := b.Finish(true)
	assert.False(t, r.OK)
	assert.Contains(t, r.Summary(), "BLOCKED")
}

func TestReport_IsSnapshot(t *testing.T) {
	b := NewBuilder("gen-3", "raw", "tpl.docx")
	b.UnresolvedToken("A")
	r := b.Finish(false)

	b.UnresolvedToken("B")
	b.Replaced("C")
	assert.Equal(t, []string{"A"}, r.UnresolvedTokens)
	assert.Empty(t, r.Replaced)
}

func TestReport_FailedNeverOK(t *testing.T) {
	b := NewBuilder("gen-4", "raw", "tpl.docx")
	b.SetState(StateFailed)
	assert.False(t, b.Finish(false).OK)
}

func TestReport_Serialization(t *testing.T) {
	b := NewBuilder("gen-5", "mandate", "mandat.docx")
	b.UnresolvedToken("Nom_du_propriétaire")
	r := b.Finish(false)

	data, err := r.YAML()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "gen-5", decoded["generation_id"])

	js, err := r.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(js), `"unresolved_tokens": [`)

	text := r.Text()
	assert.True(t, strings.HasPrefix(text, "[OK] mandate"))
	assert.Contains(t, text, "  - Nom_du_propriétaire")
}

func TestIssue_String(t *testing.T) {
	assert.Equal(t, "TokenMismatch: A", Issue{Kind: TokenMismatch, Name: "A"}.String())
	assert.Equal(t, "Note: x (y)", Issue{Kind: Note, Name: "x", Detail: "y"}.String())
}
