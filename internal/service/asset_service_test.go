package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestListBuildAssets(t *testing.T) {
	root := t.TempDir()
	study := &fakeStudyService{root: root}
	svc := NewAssetService(study)
	ctx := context.Background()
	id := uuid.New()

	t.Run("missing folders yield empty list", func(t *testing.T) {
		assets, err := svc.ListBuildAssets(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, assets)
	})

	t.Run("fallback used when preferred folder is empty", func(t *testing.T) {
		touch(t, root, "02_build/legacy.qsf")
		assets, err := svc.ListBuildAssets(ctx, id)
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "legacy.qsf", assets[0].Name)
	})

	t.Run("preferred folder wins and filters by extension", func(t *testing.T) {
		touch(t, root, "inputs/build/zeta.qsf")
		touch(t, root, "inputs/build/alpha.json")
		touch(t, root, "inputs/build/notes.docx")

		assets, err := svc.ListBuildAssets(ctx, id)
		require.NoError(t, err)
		require.Len(t, assets, 2)
		// Name-sorted, legacy folder ignored, wrong extensions dropped.
		assert.Equal(t, "alpha.json", assets[0].Name)
		assert.Equal(t, "zeta.qsf", assets[1].Name)
	})
}

func TestListPreregAssets(t *testing.T) {
	root := t.TempDir()
	study := &fakeStudyService{root: root}
	svc := NewAssetService(study)
	ctx := context.Background()
	id := uuid.New()

	touch(t, root, "inputs/prereg/prereg.docx")
	touch(t, root, "inputs/prereg/notes.md")
	touch(t, root, "inputs/prereg/survey.qsf")
	touch(t, root, "04_prereg/old.txt")

	assets, err := svc.ListPreregAssets(ctx, id)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "notes.md", assets[0].Name)
	assert.Equal(t, "prereg.docx", assets[1].Name)
}
