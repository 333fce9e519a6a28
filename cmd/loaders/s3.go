package loaders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Loader fetches an object from S3-compatible storage and decodes
// it with the file loader's format and compression detection
type S3Loader struct {
	cfg    SourceConfig
	logger *slog.Logger
}

// NewS3Loader creates an S3 loader
func NewS3Loader(cfg SourceConfig, logger *slog.Logger) *S3Loader {
	return &S3Loader{cfg: cfg, logger: logger}
}

// Load downloads the object and parses it by key name
func (l *S3Loader) Load(ctx context.Context) ([]map[string]interface{}, []string, error) {
	client, err := l.connect()
	if err != nil {
		return nil, nil, err
	}

	l.logger.Debug("☁️  Fetching S3 object", "bucket", l.cfg.Bucket, "key", l.cfg.Key)
	object, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.cfg.Bucket),
		Key:    aws.String(l.cfg.Key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", l.cfg.Bucket, l.cfg.Key, err)
	}

	fileCfg := l.cfg
	fileCfg.Path = l.cfg.Key
	return NewFileLoader(fileCfg, l.logger).parseStream(l.cfg.Key, object.Body)
}

// connect builds the S3 client from the source config
func (l *S3Loader) connect() (*s3.S3, error) {
	awsConfig := &aws.Config{
		Region: aws.String(l.cfg.Region),
	}
	if l.cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(l.cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if l.cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(l.cfg.AccessKey, l.cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return s3.New(sess), nil
}
