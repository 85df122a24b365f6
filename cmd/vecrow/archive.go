package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/blobstore/minio"
	"github.com/hupe1980/vecrow/blobstore/s3"
	"github.com/hupe1980/vecrow/cmd/vecrow/config"
)

// openArchive returns the blob store named by cfg.URI:
//
//	/path or file:///path     local directory
//	s3://bucket/prefix        S3, with the CURRENT pointer in DynamoDB when
//	                          dynamodb_table is set
//	minio://bucket/prefix     MinIO at cfg.Endpoint
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (blobstore.BlobStore, error) {
	u, err := url.Parse(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("invalid archive uri %q: %w", cfg.URI, err)
	}

	prefix := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "", "file":
		return blobstore.NewLocalStore(u.Host + u.Path), nil
	case "s3":
		store, err := s3.NewFromConfig(ctx, u.Host, prefix, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
		if cfg.DynamoDBTable == "" {
			return store, nil
		}

		var loadFns []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			loadFns = append(loadFns, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadFns...)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, cfg.URI), nil
	case "minio":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("archive.endpoint is required for %s", cfg.URI)
		}
		store, err := minio.Dial(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Secure, u.Host, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported archive scheme %q", u.Scheme)
	}
}
