package ooxml

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/pkg/ooxml/ooxmltest"
)

// TestSetCustomProperties_CreatePart 测试文档没有自定义属性部件时自动创建
func TestSetCustomProperties_CreatePart(t *testing.T) {
	doc := readDocx(t, ooxmltest.WordParagraph("x"))

	props, err := doc.CustomProperties()
	require.NoError(t, err)
	assert.Empty(t, props)

	require.NoError(t, doc.SetCustomProperties(map[string]string{
		"DocfillGenerationID": "abc",
		"DocfillKind":         "mandate",
	}))

	props, err = doc.CustomProperties()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DocfillGenerationID": "abc", "DocfillKind": "mandate"}, props)

	xml := partString(t, doc, customPropsPart)
	assert.Contains(t, xml, `pid="2" name="DocfillGenerationID"`)
	assert.Contains(t, xml, `pid="3" name="DocfillKind"`)
	assert.Contains(t, partString(t, doc, "_rels/.rels"), `Target="docProps/custom.xml"`)
	assert.Contains(t, partString(t, doc, contentTypesPart), `PartName="/docProps/custom.xml"`)
}

// TestSetCustomProperties_UpdateExisting 测试更新已有属性并在保存后保留
func TestSetCustomProperties_UpdateExisting(t *testing.T) {
	doc := readPptx(t, ooxmltest.TextShape(2, "T", []string{"x"}))
	require.NoError(t, doc.SetCustomProperties(map[string]string{"DocfillUnresolved": "3"}))
	require.NoError(t, doc.SetCustomProperties(map[string]string{"DocfillUnresolved": "0", "DocfillKind": "book"}))

	out := filepath.Join(t.TempDir(), "out.pptx")
	require.NoError(t, doc.Save(out))

	reopened, err := Open(out)
	require.NoError(t, err)
	props, err := reopened.CustomProperties()
	require.NoError(t, err)
	assert.Equal(t, "0", props["DocfillUnresolved"])
	assert.Equal(t, "book", props["DocfillKind"])

	rels, err := reopened.Relationships("")
	require.NoError(t, err)
	count := 0
	for _, rel := range rels {
		if rel.Type == RelTypeCustomProps {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
