package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/internal/domain"
)

func TestSampleJob_RoundTrip(t *testing.T) {
	kinds := []domain.Kind{domain.KindEstimation, domain.KindMandate, domain.KindBook, domain.KindRaw}
	for _, kind := range kinds {
		for _, ext := range []string{".yaml", ".json"} {
			t.Run(string(kind)+ext, func(t *testing.T) {
				job, err := SampleJob(kind)
				require.NoError(t, err)

				path := filepath.Join(t.TempDir(), "job"+ext)
				require.NoError(t, SaveConfig(job, path))

				loaded, err := NewConfigManager().LoadConfig(path)
				require.NoError(t, err)
				assert.Equal(t, string(kind), loaded.Kind)
				assert.Equal(t, job.Template, loaded.Template)
				assert.Equal(t, job.Address(), loaded.Address())
			})
		}
	}
}

func TestSaveConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	job, err := SampleJob(domain.KindRaw)
	require.NoError(t, err)

	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, SaveConfig(job, path))
	assert.Error(t, SaveConfig(job, path), "已存在的文件不覆盖")

	assert.Error(t, SaveConfig(job, filepath.Join(dir, "job.txt")))
	assert.Error(t, SaveConfig(nil, filepath.Join(dir, "nil.yaml")))

	_, err = SampleJob("facture")
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
}
