package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/chainvault/internal/common"
	sc "github.com/dmitrijs2005/chainvault/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
	listObjectsV2 = func(c *s3.Client, ctx context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
		return c.ListObjectsV2(ctx, in)
	}

	nowUnixMilli = func() int64 { return time.Now().UnixMilli() }
)

// S3Archiver stores payloads in an S3-compatible bucket (MinIO in the
// default docker-compose setup).
type S3Archiver struct {
	client *s3.Client
	bucket string
}

// NewS3Archiver builds the S3 client from static credentials and the
// configured base endpoint.
func NewS3Archiver(ctx context.Context, config *sc.Config) (*S3Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.S3RootUser,     // MINIO_ROOT_USER
			config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Archiver{client: client, bucket: config.S3Bucket}, nil
}

// StorageKey builds the key a payload is stored under. The millisecond
// timestamp keeps repeated uploads of the same filename from colliding.
func StorageKey(ownerID, filename string) string {
	return fmt.Sprintf("%s/%d-%s", ownerID, nowUnixMilli(), filename)
}

func (a *S3Archiver) Write(ctx context.Context, ownerID, filename, mimeType string, body io.Reader, size int64) (string, error) {
	if mimeType == "" {
		mimeType = common.OctetStreamMimeType
	}
	key := StorageKey(ownerID, filename)

	_, err := putObject(a.client, ctx, &s3.PutObjectInput{
		Bucket:        &a.bucket,
		Key:           &key,
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   &mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return key, nil
}

func (a *S3Archiver) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := getObject(a.client, ctx, &s3.GetObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return out.Body, nil
}

func (a *S3Archiver) Delete(ctx context.Context, key string) error {
	_, err := deleteObject(a.client, ctx, &s3.DeleteObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return nil
}

// ResolveKey lists the owner's prefix and returns the first key whose
// name contains filename. Keys embed an upload timestamp, so exact
// reconstruction is not possible without it.
func (a *S3Archiver) ResolveKey(ctx context.Context, ownerID, filename string) (string, error) {
	prefix := ownerID + "/"
	var token *string
	for {
		out, err := listObjectsV2(a.client, ctx, &s3.ListObjectsV2Input{
			Bucket:            &a.bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrUnavailable, err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil && strings.Contains(*obj.Key, filename) {
				return *obj.Key, nil
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return "", common.ErrNotFound
}
