package mediacache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/phrazzld/promptq/internal/config"
	"github.com/phrazzld/promptq/internal/mediacache/drivers"
)

// NewStorageFromConfig creates a storage driver based on the provided
// configuration.
func NewStorageFromConfig(ctx context.Context, cfg config.MediaCacheConfig, publicURL string) (StorageDriver, error) {
	switch cfg.Driver {
	case "local":
		slog.Info("Initializing local media storage", "dir", cfg.Dir)
		return drivers.NewLocalFSDriver(cfg.Dir, publicURL)
	case "s3":
		slog.Info("Initializing S3 media storage", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)

		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}

		if cfg.AccessKey != "" && cfg.SecretKey != "" {
			creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
			opts = append(opts, awsconfig.WithCredentialsProvider(creds))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = true
		})

		return drivers.NewS3Driver(client, cfg.Bucket, publicURL), nil
	default:
		return nil, fmt.Errorf("unsupported media cache driver: %s", cfg.Driver)
	}
}
