package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig configures the S3-compatible shared-document sink.
type ObjectConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string // the shared document object key
	UseSSL    bool
}

// ObjectStore appends documentation to a single shared object in an
// S3-compatible store: read the existing document, concatenate, put back.
type ObjectStore struct {
	client   *minio.Client
	bucket   string
	object   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewObjectStore validates the sink configuration and builds the client.
func NewObjectStore(cfg ObjectConfig) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("object store access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	object := strings.TrimSpace(cfg.Object)
	if object == "" {
		object = "documentation.md"
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}

	return &ObjectStore{client: client, bucket: bucket, object: object, region: region}, nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Append implements Appender against the shared document object.
func (s *ObjectStore) Append(ctx context.Context, name string, content []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	existing, err := s.read(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if buf.Len() > 0 {
		buf.WriteString("\n\n---\n\n")
	}
	fmt.Fprintf(&buf, "<!-- %s -->\n", name)
	buf.Write(content)

	_, err = s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	return err
}

func (s *ObjectStore) read(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
