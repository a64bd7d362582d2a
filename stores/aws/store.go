package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"protodraw/core"
)

const (
	thumbnailSuffix = ".png"
	metaSnapshotID  = "snapshot-id"
)

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	s3Client objectAPI
	bucket   string
}

// NewStore creates a new S3-based store. Each key is one object; its
// thumbnail is stored as <key>.png.
func NewStore(ctx context.Context, bucketName string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucketName), nil
}

func newStore(client objectAPI, bucketName string) *s3Store {
	return &s3Store{s3Client: client, bucket: bucketName}
}

func (s *s3Store) Save(ctx context.Context, snapshot *core.Snapshot) error {
	if snapshot.Key == "" {
		return fmt.Errorf("snapshot key is required")
	}
	log := logrus.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"key":         snapshot.Key,
		"bucket":      s.bucket,
	})

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(snapshot.Key),
		Body:        bytes.NewReader(snapshot.Data),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{metaSnapshotID: snapshot.ID},
	})
	if err != nil {
		log.WithError(err).Error("Failed to upload snapshot")
		return fmt.Errorf("failed to upload snapshot %s: %w", snapshot.Key, err)
	}

	if len(snapshot.Thumbnail) > 0 {
		_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(snapshot.Key + thumbnailSuffix),
			Body:        bytes.NewReader(snapshot.Thumbnail),
			ContentType: aws.String("image/png"),
		})
		if err != nil {
			log.WithError(err).Warn("Failed to upload snapshot thumbnail")
		}
	}

	log.Info("Snapshot saved successfully")
	return nil
}

func (s *s3Store) Load(ctx context.Context, key string) (*core.Snapshot, error) {
	data, out, err := s.get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: key %s", core.ErrSnapshotNotFound, key)
		}
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}

	snap := &core.Snapshot{ID: out.Metadata[metaSnapshotID], Key: key, Data: data}
	if snap.ID == "" {
		snap.ID = key
	}
	if out.LastModified != nil {
		snap.CreatedAt = out.LastModified.UTC()
	} else {
		snap.CreatedAt = time.Now().UTC()
	}
	if thumb, _, err := s.get(ctx, key+thumbnailSuffix); err == nil {
		snap.Thumbnail = thumb
	}
	return snap, nil
}

func (s *s3Store) get(ctx context.Context, key string) ([]byte, *s3.GetObjectOutput, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object data: %w", err)
	}
	return data, resp, nil
}

func (s *s3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check snapshot %s: %w", key, err)
	}
	return true, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	for _, k := range []string{key, key + thumbnailSuffix} {
		_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(k),
		})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete snapshot object %s: %w", k, err)
		}
	}
	logrus.WithFields(logrus.Fields{"key": key, "bucket": s.bucket}).Info("Snapshot deleted successfully")
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
