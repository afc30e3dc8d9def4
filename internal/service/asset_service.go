package service

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"research-workflow-be/internal/dto"
)

type IAssetService interface {
	ListBuildAssets(ctx context.Context, studyId uuid.UUID) ([]*dto.AssetResponse, error)
	ListPreregAssets(ctx context.Context, studyId uuid.UUID) ([]*dto.AssetResponse, error)
}

// assetService walks a study's input folders for candidate survey builds and
// pre-registration documents. Each kind has a preferred folder and a legacy
// fallback; the fallback is consulted only when the preferred one is empty.
type assetService struct {
	studyService IStudyService
}

func NewAssetService(studyService IStudyService) IAssetService {
	return &assetService{studyService: studyService}
}

var buildExtensions = []string{".qsf", ".qsf.json", ".json"}

var preregExtensions = []string{".docx", ".md", ".markdown", ".json", ".txt"}

func (s *assetService) ListBuildAssets(ctx context.Context, studyId uuid.UUID) ([]*dto.AssetResponse, error) {
	return s.list(ctx, studyId, filepath.Join("inputs", "build"), "02_build", buildExtensions)
}

func (s *assetService) ListPreregAssets(ctx context.Context, studyId uuid.UUID) ([]*dto.AssetResponse, error) {
	return s.list(ctx, studyId, filepath.Join("inputs", "prereg"), "04_prereg", preregExtensions)
}

func (s *assetService) list(ctx context.Context, studyId uuid.UUID, primary, fallback string, extensions []string) ([]*dto.AssetResponse, error) {
	root, err := s.studyService.StudyRoot(ctx, studyId)
	if err != nil {
		return nil, err
	}

	assets, err := listFilesIn(filepath.Join(root, primary))
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		assets, err = listFilesIn(filepath.Join(root, fallback))
		if err != nil {
			return nil, err
		}
	}

	filtered := make([]*dto.AssetResponse, 0, len(assets))
	for _, a := range assets {
		if hasAnySuffix(strings.ToLower(a.Path), extensions) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

func listFilesIn(dir string) ([]*dto.AssetResponse, error) {
	var out []*dto.AssetResponse
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A missing folder just means no assets of this kind yet.
			if path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		out = append(out, &dto.AssetResponse{
			Name: d.Name(),
			Path: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func hasAnySuffix(path string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
