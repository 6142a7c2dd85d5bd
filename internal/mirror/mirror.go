// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mirror copies downloaded product archives to an S3 bucket. Like
// the local download, an object that already has the file's size is left
// alone.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

// ObjectAPI is the part of the S3 client the mirror uses.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Result describes one mirrored archive.
type Result struct {
	Key     string
	Bytes   int64
	Skipped bool
}

// Mirror uploads archives under a bucket and key prefix.
type Mirror struct {
	api    ObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// New builds a Mirror backed by an S3 client from the default AWS
// configuration chain.
func New(ctx context.Context, cfg types.MirrorConfig, logger *slog.Logger) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mirror: no bucket configured")
	}
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewWithAPI(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewWithAPI builds a Mirror over any ObjectAPI implementation.
func NewWithAPI(api ObjectAPI, cfg types.MirrorConfig, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mirror{api: api, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/"), logger: logger}
}

// Key returns the object key for a product.
func (m *Mirror) Key(productID string) string {
	name := productID + ".zip"
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// Put uploads localPath unless the object already exists with the same size.
func (m *Mirror) Put(ctx context.Context, localPath, productID string) (Result, error) {
	key := m.Key(productID)

	f, err := os.Open(localPath)
	if err != nil {
		return Result{Key: key}, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{Key: key}, fmt.Errorf("stat %s: %w", localPath, err)
	}
	size := info.Size()

	head, err := m.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		if aws.ToInt64(head.ContentLength) == size {
			m.logger.Info("mirror up to date", "bucket", m.bucket, "key", key, "bytes", size)
			return Result{Key: key, Bytes: size, Skipped: true}, nil
		}
	case isNotFound(err):
	default:
		return Result{Key: key}, fmt.Errorf("checking s3://%s/%s: %w", m.bucket, key, err)
	}

	_, err = m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/zip"),
	})
	if err != nil {
		return Result{Key: key}, fmt.Errorf("uploading s3://%s/%s: %w", m.bucket, key, err)
	}
	m.logger.Info("mirrored", "bucket", m.bucket, "key", key, "bytes", size)
	return Result{Key: key, Bytes: size}, nil
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
