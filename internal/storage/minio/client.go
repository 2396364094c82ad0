package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/tideflow/tideflow-server/internal/model"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

var _ model.TideDocuments = (*Client)(nil)

// Client stores one JSON document per tide, holding the full nested
// record including its complete event list.
type Client struct {
	api    minioAPI
	bucket string

	mu    sync.Mutex
	locks map[uuid.UUID]*tideLock
}

// tideLock serializes read-modify-write cycles on one tide's document.
// Entries are refcounted so the map only holds tides with appends in
// flight.
type tideLock struct {
	sync.Mutex
	refs int
}

// NewClient creates a new MinIO document store using a real *minio.Client instance.
func NewClient(ctx context.Context, client *minio.Client, bucket string) (*Client, error) {
	return NewClientWithAPI(ctx, minioClientWrapper{c: client}, bucket)
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(ctx context.Context, api minioAPI, bucket string) (*Client, error) {
	c := &Client{
		api:    api,
		bucket: bucket,
		locks:  make(map[uuid.UUID]*tideLock),
	}

	// Ensure bucket exists
	err := c.ensureBucketExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return c, nil
}

// ensureBucketExists creates the bucket if it doesn't exist
func (c *Client) ensureBucketExists(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Save writes the full tide document, replacing any previous version.
func (c *Client) Save(ctx context.Context, tide model.Tide) error {
	data, err := json.Marshal(tide)
	if err != nil {
		return fmt.Errorf("failed to encode tide document: %w", err)
	}

	_, err = c.api.PutObject(ctx, c.bucket, objectKey(tide.ID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload tide document: %w", err)
	}
	return nil
}

// Load reads the full tide document by id.
func (c *Client) Load(ctx context.Context, id uuid.UUID) (model.Tide, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return model.Tide{}, mapNotFound(err)
	}
	defer obj.Close()

	var tide model.Tide
	if err := json.NewDecoder(obj).Decode(&tide); err != nil {
		// GetObject reports a missing key lazily, on first read.
		return model.Tide{}, mapNotFound(err)
	}

	return tide, nil
}

// AppendEvent reads the document, appends the event and writes it back.
// The read-modify-write cycle holds a per-tide lock, so a concurrent
// append to the same tide cannot read a stale document and erase the
// other's event on write-back. Events already present under the same id
// are left untouched, so a retried leg never duplicates an event. List
// order is the order appends are observed here.
func (c *Client) AppendEvent(ctx context.Context, tideID uuid.UUID, event model.TideEvent) error {
	lock := c.lockTide(tideID)
	defer c.unlockTide(tideID, lock)

	tide, err := c.Load(ctx, tideID)
	if err != nil {
		return err
	}

	for _, existing := range tide.Events {
		if existing.ID == event.ID {
			return nil
		}
	}
	tide.Events = append(tide.Events, event)
	tide.UpdatedAt = event.RecordedAt

	return c.Save(ctx, tide)
}

func (c *Client) lockTide(id uuid.UUID) *tideLock {
	c.mu.Lock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &tideLock{}
		c.locks[id] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.Lock()
	return lock
}

func (c *Client) unlockTide(id uuid.UUID, lock *tideLock) {
	lock.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.locks, id)
	}
	c.mu.Unlock()
}

func objectKey(id uuid.UUID) string {
	return fmt.Sprintf("tides/%s.json", id)
}

func mapNotFound(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return model.ErrNotFound
	}
	return fmt.Errorf("failed to get tide document: %w", err)
}
