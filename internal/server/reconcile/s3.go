package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "orphans/"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Settings locate the bucket. Any S3-compatible store works; set
// BaseEndpoint for MinIO and friends.
type S3Settings struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	Prefix       string
}

// S3Journal writes one JSON object per orphan under
// <prefix>YYYY/MM/DD/<credential id>.json.
type S3Journal struct {
	client objectPutter
	bucket string
	prefix string
}

func NewS3Journal(ctx context.Context, s S3Settings) (*S3Journal, error) {
	if s.Bucket == "" {
		return nil, fmt.Errorf("s3 journal: bucket is required")
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKey,
			s.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 journal: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Journal(client, s.Bucket, s.Prefix), nil
}

func newS3Journal(client objectPutter, bucket, prefix string) *S3Journal {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &S3Journal{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of o.
func (j *S3Journal) Key(o Orphan) string {
	day := o.DetectedAt.UTC().Format("2006/01/02")
	return j.prefix + path.Join(day, o.CredentialID+".json")
}

func (j *S3Journal) Record(ctx context.Context, o Orphan) error {
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("s3 journal: %w", err)
	}

	_, err = j.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(j.bucket),
		Key:         aws.String(j.Key(o)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 journal: put %s: %w", j.Key(o), err)
	}
	return nil
}
