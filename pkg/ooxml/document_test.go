package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/pkg/ooxml/ooxmltest"
)

func TestRead_DetectFormat(t *testing.T) {
	pptx, err := Read(ooxmltest.NewPptx(ooxmltest.TextShape(2, "Titre", []string{"x"})).Bytes(), "a.pptx")
	require.NoError(t, err)
	assert.Equal(t, FormatPptx, pptx.Format())
	assert.Equal(t, []string{"ppt/slides/slide1.xml"}, pptx.TextParts())

	docx, err := Read(ooxmltest.NewDocx(ooxmltest.WordParagraph("x")).Bytes(), "a.docx")
	require.NoError(t, err)
	assert.Equal(t, FormatDocx, docx.Format())
	assert.Equal(t, "docx", docx.Format().String())
}

func TestRead_Errors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		_, err := Read([]byte("plain text"), "bad.pptx")
		assert.Error(t, err)
	})

	t.Run("zip without office parts", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create("hello.txt")
		_, _ = w.Write([]byte("hi"))
		require.NoError(t, zw.Close())

		_, err := Read(buf.Bytes(), "other.zip")
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("legacy binary", func(t *testing.T) {
		data := append([]byte{}, oleSignature...)
		data = append(data, make([]byte, 512)...)
		_, err := Read(data, "old.ppt")
		assert.True(t, errors.Is(err, ErrLegacyFormat))
	})
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.pptx"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSlides_NumericOrder(t *testing.T) {
	var slides []string
	for i := 0; i < 11; i++ {
		slides = append(slides, ooxmltest.TextShape(2, "s", []string{"x"}))
	}
	doc, err := Read(ooxmltest.NewPptx(slides...).Bytes(), "deck.pptx")
	require.NoError(t, err)

	names := doc.Slides()
	require.Len(t, names, 11)
	assert.Equal(t, "ppt/slides/slide2.xml", names[1])
	assert.Equal(t, "ppt/slides/slide10.xml", names[9])
	assert.Equal(t, "ppt/slides/slide11.xml", names[10])
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc, err := Read(ooxmltest.NewPptx(ooxmltest.TextShape(2, "T", []string{"Bonjour [[NOM]]"})).Bytes(), "deck.pptx")
	require.NoError(t, err)

	paras, err := doc.Paragraphs()
	require.NoError(t, err)
	require.NoError(t, paras[0].SetRunText(0, "Bonjour Alice"))

	out := filepath.Join(dir, "out.pptx")
	require.NoError(t, doc.Save(out))

	reopened, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, doc.PartNames(), reopened.PartNames())

	paras, err = reopened.Paragraphs()
	require.NoError(t, err)
	assert.Equal(t, "Bonjour Alice", paras[0].Text())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "临时文件应被重命名")
}

func TestSave_MissingDirectory(t *testing.T) {
	doc, err := Read(ooxmltest.NewDocx(ooxmltest.WordParagraph("x")).Bytes(), "a.docx")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "missing", "out.docx")
	assert.Error(t, doc.Save(out))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRelativeTarget(t *testing.T) {
	tests := []struct {
		from, to, expected string
	}{
		{"ppt/slides", "ppt/media/docfill_1.png", "../media/docfill_1.png"},
		{"word", "word/media/docfill_1.png", "media/docfill_1.png"},
		{".", "docProps/custom.xml", "docProps/custom.xml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, relativeTarget(tt.from, tt.to))
	}
	assert.Equal(t, "ppt/media/image1.png", resolveTarget("ppt/slides/slide1.xml", "../media/image1.png"))
	assert.Equal(t, "docProps/custom.xml", resolveTarget("", "docProps/custom.xml"))
}
