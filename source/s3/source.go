// Package s3 fetches documents from Amazon S3 using s3://bucket/key URIs.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidURI is returned for URIs that do not name a bucket and key.
var ErrInvalidURI = errors.New("s3: invalid uri")

// GetObjectAPI is the subset of the S3 client used by Source.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source fetches whole objects from S3.
type Source struct {
	client GetObjectAPI
}

// NewSource creates a Source backed by client.
func NewSource(client GetObjectAPI) *Source {
	return &Source{client: client}
}

// NewDefaultSource creates a Source using the default AWS configuration
// chain (environment, shared config, instance roles).
func NewDefaultSource(ctx context.Context, optFns ...func(*config.LoadOptions) error) (*Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSource(s3.NewFromConfig(cfg)), nil
}

// Fetch reads the object addressed by uri.
func (s *Source) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return data, nil
}

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: scheme %q", ErrInvalidURI, u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	return u.Host, key, nil
}
