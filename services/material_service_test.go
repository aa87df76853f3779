package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"library-service/models"
	"library-service/services"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Mock Blob Store ---

type mockBlobStore struct {
	objects    map[string]string
	putErr     error
	presignURL string
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string]string), presignURL: "https://blobs.example/signed"}
}

func (m *mockBlobStore) Put(_ context.Context, key, contentType string, _ io.Reader) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = contentType
	return nil
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *mockBlobStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := m.objects[key]; !ok {
		return "", errors.New("no such object")
	}
	return m.presignURL, nil
}

// failingCreateRepo forces metadata inserts to fail while delegating
// everything else.
type failingCreateRepo struct {
	*mockMaterialRepo
}

func (f *failingCreateRepo) Create(context.Context, *models.Material) error {
	return errors.New("insert rejected")
}

// --- Helpers ---

func newTestMaterialService(repo *mockMaterialRepo, blobs *mockBlobStore) *services.MaterialService {
	logger, _ := zap.NewDevelopment()
	return services.NewMaterialService(repo, blobs, logger)
}

func uploadRequest() *models.UploadMaterialRequest {
	return &models.UploadMaterialRequest{
		Title:        "Graph Algorithms",
		Authors:      "Alice Chen, Bob Osei",
		MaterialType: models.MaterialTypeBook,
		Keywords:     "Graphs, BFS , shortest paths",
		Category:     "Computer Science",
		IsPhysical:   true,
		TotalCopies:  3,
	}
}

// --- Tests ---

func TestUpload_Success(t *testing.T) {
	repo := newMockMaterialRepo()
	blobs := newMockBlobStore()
	svc := newTestMaterialService(repo, blobs)
	uploader := primitive.NewObjectID()

	material, err := svc.Upload(context.Background(), uploadRequest(), uploader.Hex(), "graphs.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	assert.NoError(t, err)
	assert.Equal(t, "Graph Algorithms", material.Title)
	assert.Equal(t, []string{"Alice Chen", "Bob Osei"}, material.Authors)
	assert.Equal(t, []string{"graphs", "bfs", "shortest paths"}, material.Keywords, "keywords are trimmed and lowercased")
	assert.Equal(t, uploader, material.UploadedBy)
	assert.Equal(t, 3, material.TotalCopies)
	assert.Equal(t, 3, material.AvailableCopies)
	assert.True(t, strings.HasSuffix(material.FileKey, ".pdf"))
	assert.Len(t, blobs.objects, 1)
}

func TestUpload_NonPhysicalHasNoCopies(t *testing.T) {
	repo := newMockMaterialRepo()
	svc := newTestMaterialService(repo, newMockBlobStore())

	req := uploadRequest()
	req.IsPhysical = false
	req.TotalCopies = 5

	material, err := svc.Upload(context.Background(), req, primitive.NewObjectID().Hex(), "paper.pdf", "application/pdf", strings.NewReader("x"))
	assert.NoError(t, err)
	assert.Equal(t, 0, material.TotalCopies)
	assert.Equal(t, 0, material.AvailableCopies)
}

func TestUpload_InvalidType(t *testing.T) {
	svc := newTestMaterialService(newMockMaterialRepo(), newMockBlobStore())

	req := uploadRequest()
	req.MaterialType = "magazine"

	_, err := svc.Upload(context.Background(), req, primitive.NewObjectID().Hex(), "m.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUpload_PhysicalNeedsCopies(t *testing.T) {
	svc := newTestMaterialService(newMockMaterialRepo(), newMockBlobStore())

	req := uploadRequest()
	req.TotalCopies = 0

	_, err := svc.Upload(context.Background(), req, primitive.NewObjectID().Hex(), "m.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUpload_MetadataFailureCleansUpBlob(t *testing.T) {
	repo := &failingCreateRepo{newMockMaterialRepo()}
	blobs := newMockBlobStore()
	logger, _ := zap.NewDevelopment()
	svc := services.NewMaterialService(repo, blobs, logger)

	_, err := svc.Upload(context.Background(), uploadRequest(), primitive.NewObjectID().Hex(), "m.pdf", "application/pdf", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Empty(t, blobs.objects, "the stored blob must be removed when the insert fails")
}

func TestDelete_OnlyUploaderOrAdmin(t *testing.T) {
	repo := newMockMaterialRepo()
	blobs := newMockBlobStore()
	svc := newTestMaterialService(repo, blobs)
	uploader := primitive.NewObjectID()

	material, err := svc.Upload(context.Background(), uploadRequest(), uploader.Hex(), "m.pdf", "application/pdf", strings.NewReader("x"))
	assert.NoError(t, err)

	_, err = svc.Delete(context.Background(), material.ID.Hex(), primitive.NewObjectID().Hex(), models.RoleStudent)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.Delete(context.Background(), material.ID.Hex(), uploader.Hex(), models.RoleStudent)
	assert.NoError(t, err)
	assert.Empty(t, blobs.objects, "the stored file goes with the material")
}

func TestDelete_AdminMayDeleteAnything(t *testing.T) {
	repo := newMockMaterialRepo()
	svc := newTestMaterialService(repo, newMockBlobStore())

	material, err := svc.Upload(context.Background(), uploadRequest(), primitive.NewObjectID().Hex(), "m.pdf", "application/pdf", strings.NewReader("x"))
	assert.NoError(t, err)

	_, err = svc.Delete(context.Background(), material.ID.Hex(), primitive.NewObjectID().Hex(), models.RoleAdmin)
	assert.NoError(t, err)
}

func TestDownloadURL(t *testing.T) {
	repo := newMockMaterialRepo()
	blobs := newMockBlobStore()
	svc := newTestMaterialService(repo, blobs)

	material, err := svc.Upload(context.Background(), uploadRequest(), primitive.NewObjectID().Hex(), "m.pdf", "application/pdf", strings.NewReader("x"))
	assert.NoError(t, err)

	url, err := svc.DownloadURL(context.Background(), material.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, blobs.presignURL, url)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestMaterialService(newMockMaterialRepo(), newMockBlobStore())

	_, err := svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.GetByID(context.Background(), "garbage")
	assert.ErrorIs(t, err, services.ErrInvalidID)
}

func TestSearch_PaginationMetadata(t *testing.T) {
	repo := newMockMaterialRepo()
	svc := newTestMaterialService(repo, newMockBlobStore())

	for i := 0; i < 25; i++ {
		_ = repo.Create(context.Background(), &models.Material{
			Title:        "Item",
			MaterialType: models.MaterialTypeBook,
		})
	}

	result, err := svc.Search(context.Background(), services.MaterialSearchParams{Page: 2, Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(25), result.Pagination.TotalItems)
	assert.Equal(t, 3, result.Pagination.TotalPages)
	assert.Equal(t, 2, result.Pagination.CurrentPage)
	if assert.NotNil(t, result.Pagination.NextPage) {
		assert.Equal(t, 3, *result.Pagination.NextPage)
	}
}
