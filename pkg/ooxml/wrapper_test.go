package ooxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/pkg/ooxml/ooxmltest"
)

func TestXMLToText(t *testing.T) {
	content := `<w:body><w:p><w:r><w:t>Nom : </w:t></w:r><w:r><w:t>[[NOM]]</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>A &amp; B</w:t><w:br/><w:t>suite</w:t></w:r></w:p></w:body>`
	assert.Equal(t, "Nom : [[NOM]]\nA & B\nsuite", xmlToText(content))
}

func TestDocxText(t *testing.T) {
	path := ooxmltest.NewDocx(ooxmltest.WordParagraph("Bonjour ", "[[NOM]]")).WriteFile(t, t.TempDir(), "a.docx")
	text, err := DocxText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Bonjour [[NOM]]")
}

func TestIsLegacy(t *testing.T) {
	assert.True(t, IsLegacy(append(append([]byte{}, oleSignature...), 0, 0)))
	assert.False(t, IsLegacy([]byte("PK\x03\x04")))
	assert.Equal(t, "格式 ppt, 标题 Deck", LegacyInfo{Format: "ppt", Title: "Deck"}.String())
	assert.Equal(t, "未知的 OLE 文档", LegacyInfo{}.String())
}
