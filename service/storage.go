package service

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

type minioStore struct {
	client *minio.Client
	bucket string
}

func NewObjectStore(client *minio.Client, bucket string) ObjectStore {
	return &minioStore{
		client: client,
		bucket: bucket,
	}
}

func (s *minioStore) Put(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *minioStore) FPut(ctx context.Context, objectPath, localPath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, objectPath, localPath, minio.PutObjectOptions{})
	return err
}

func (s *minioStore) FGet(ctx context.Context, objectPath, localPath string) error {
	return s.client.FGetObject(ctx, s.bucket, objectPath, localPath, minio.GetObjectOptions{})
}

func (s *minioStore) Remove(ctx context.Context, objectPath string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{})
}
