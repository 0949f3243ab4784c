// Package s3 provides the key-value driver for S3-compatible buckets (AWS S3,
// MinIO). The object ETag is the entry revision; compare-and-set uses
// conditional writes (If-Match / If-None-Match).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ethicure/internal/kv/core"
)

const jsonContentType = "application/json"

// Config holds construction parameters.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional custom endpoint (MinIO)
	AccessKeyID     string // optional; falls back to the default credential chain
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
	HTTPClient      *http.Client // optional transport override
}

// Store implements core.Store on a single bucket. Keys map to object keys.
type Store struct {
	client *s3.Client
	bucket string
}

// New creates an S3 store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Driver returns the s3 driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverS3 }

// Close is a no-op; the SDK client holds no long-lived resources.
func (s *Store) Close() error { return nil }

// Get downloads the object.
func (s *Store) Get(ctx context.Context, key string) (core.Entry, bool, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, false, core.ErrEmptyKey
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return core.Entry{}, false, nil
		}
		return core.Entry{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()
	value, err := io.ReadAll(out.Body)
	if err != nil {
		return core.Entry{}, false, fmt.Errorf("read %s: %w", key, err)
	}
	return core.Entry{
		Key:       key,
		Value:     value,
		Revision:  aws.ToString(out.ETag),
		Size:      int64(len(value)),
		UpdatedAt: aws.ToTime(out.LastModified).UTC(),
	}, true, nil
}

// Set uploads the object unconditionally.
func (s *Store) Set(ctx context.Context, key string, value []byte) (core.Entry, error) {
	return s.put(ctx, key, value, func(*s3.PutObjectInput) {})
}

// CompareAndSet uploads with If-None-Match: * (create) or If-Match: etag.
func (s *Store) CompareAndSet(ctx context.Context, key, expected string, value []byte) (core.Entry, error) {
	return s.put(ctx, key, value, func(in *s3.PutObjectInput) {
		if expected == "" {
			in.IfNoneMatch = aws.String("*")
			return
		}
		in.IfMatch = aws.String(expected)
	})
}

func (s *Store) put(ctx context.Context, key string, value []byte, condition func(*s3.PutObjectInput)) (core.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, core.ErrEmptyKey
	}
	input := &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
		ContentType:   aws.String(jsonContentType),
	}
	condition(input)
	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		switch statusCode(err) {
		case http.StatusPreconditionFailed, http.StatusConflict:
			return core.Entry{}, core.ErrConflict
		case http.StatusNotFound:
			if input.IfMatch != nil {
				return core.Entry{}, core.ErrConflict
			}
		}
		return core.Entry{}, fmt.Errorf("put %s: %w", key, err)
	}
	return core.Entry{Key: key, Revision: aws.ToString(out.ETag), Size: int64(len(value)), UpdatedAt: time.Now().UTC()}, nil
}

// Delete removes the object, checking existence first.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if statusCode(err) == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, nil
}

// List pages through ListObjectsV2.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Entry, error) {
	var out []core.Entry
	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		for _, obj := range page.Contents {
			out = append(out, core.Entry{
				Key:       aws.ToString(obj.Key),
				Revision:  aws.ToString(obj.ETag),
				Size:      aws.ToInt64(obj.Size),
				UpdatedAt: aws.ToTime(obj.LastModified).UTC(),
			})
		}
		if aws.ToBool(page.IsTruncated) && page.NextContinuationToken != nil {
			token = page.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func statusCode(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}
