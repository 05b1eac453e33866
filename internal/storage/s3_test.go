package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(bucketName).Error(0)
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(bucketName, objectName, string(data), opts.ContentType)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(bucketName, objectName)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockObjectAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	args := m.Called(bucketName, objectName)
	obj, _ := args.Get(0).(*minio.Object)
	return obj, args.Error(1)
}

func (m *mockObjectAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(bucketName, objectName).Error(0)
}

func (m *mockObjectAPI) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(bucketName)
	infos := args.Get(0).([]minio.ObjectInfo)
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func TestS3EnsureBucket(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", "photos").Return(false, nil)
	api.On("MakeBucket", "photos").Return(nil)

	require.NoError(t, newS3(api, "photos").ensureBucket(context.Background()))
	api.AssertExpectations(t)
}

func TestS3Save(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("PutObject", "photos", "a.png", "png-bytes", "image/png").Return(minio.UploadInfo{Size: 9}, nil)

	n, err := newS3(api, "photos").Save(context.Background(), "a.png", bytes.NewReader([]byte("png-bytes")), 9, "image/png")
	require.NoError(t, err)
	assert.EqualValues(t, 9, n)
	api.AssertExpectations(t)
}

func TestS3SaveFailureCleansUp(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("PutObject", "photos", "a.png", "png", "image/png").Return(minio.UploadInfo{}, errors.New("timeout"))
	api.On("RemoveObject", "photos", "a.png").Return(nil)

	_, err := newS3(api, "photos").Save(context.Background(), "a.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.Error(t, err)
	api.AssertExpectations(t)
}

func TestS3OpenMissing(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("StatObject", "photos", "gone.png").
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

	_, err := newS3(api, "photos").Open(context.Background(), "gone.png")
	assert.ErrorIs(t, err, ErrNotFound)
	api.AssertNotCalled(t, "GetObject", "photos", "gone.png")
}

func TestS3RemoveMissingIsFine(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("RemoveObject", "photos", "gone.png").Return(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

	assert.NoError(t, newS3(api, "photos").Remove(context.Background(), "gone.png"))
}

func TestS3List(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	api := new(mockObjectAPI)
	api.On("ListObjects", "photos").Return([]minio.ObjectInfo{
		{Key: "one.png", Size: 1, LastModified: modified},
		{Key: "two.png", Size: 2, LastModified: modified},
	})

	objects, err := newS3(api, "photos").List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Object{
		{Name: "one.png", Size: 1, ModTime: modified},
		{Name: "two.png", Size: 2, ModTime: modified},
	}, objects)
}

func TestS3ListError(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("ListObjects", "photos").Return([]minio.ObjectInfo{{Err: errors.New("access denied")}})

	_, err := newS3(api, "photos").List(context.Background())
	assert.Error(t, err)
}
