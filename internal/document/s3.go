package document

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"docsift-backend/internal/shared/fault"
)

// S3API is the slice of the S3 client the source needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a document from an S3 object.
type S3Source struct {
	Client S3API
	Bucket string
	Key    string
}

// NewS3Source builds a source for an s3://bucket/key URI using the default
// AWS credential chain.
func NewS3Source(ctx context.Context, uri, region string) (*S3Source, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fault.Wrap(fault.KindDocument, "load aws config", err)
	}
	return &S3Source{Client: s3.NewFromConfig(cfg), Bucket: bucket, Key: key}, nil
}

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", fault.Newf(fault.KindDocument, "not an s3 uri: %s", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fault.Newf(fault.KindDocument, "invalid s3 uri: %s", uri)
	}
	return parts[0], parts[1], nil
}

func (s *S3Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindDocument, fmt.Sprintf("s3 get object bucket=%s key=%s", s.Bucket, s.Key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fault.Wrap(fault.KindDocument, fmt.Sprintf("s3 read object bucket=%s key=%s", s.Bucket, s.Key), err)
	}
	return data, nil
}

func (s *S3Source) DisplayName() string {
	return path.Base(s.Key)
}

// FromURI maps a locator to the right source: s3:// objects, http(s) URLs,
// anything else a local file path.
func FromURI(ctx context.Context, uri, region string) (Source, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		return NewS3Source(ctx, uri, region)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return HTTPSource{URL: uri}, nil
	default:
		return FileSource{Path: uri}, nil
	}
}
