package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Provider abstracts blob storage so handlers and jobs never touch the SDK
// directly.
type Provider interface {
	UploadFile(ctx context.Context, data io.Reader, path string, contentType string) (string, error)
	GetPublicURL(path string) string
	DeleteFile(ctx context.Context, path string) error
}

// S3Config works with AWS S3 and any S3-compatible store (MinIO, R2).
type S3Config struct {
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
	UsePathStyle  bool   `yaml:"use_path_style"`
}

type S3Provider struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   S3Config
}

func NewS3Provider(cfg S3Config) (*S3Provider, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}

	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Provider{
		client:   client,
		uploader: manager.NewUploader(client),
		config:   cfg,
	}, nil
}

// UploadFile streams data to the bucket and returns the public URL.
func (p *S3Provider) UploadFile(ctx context.Context, data io.Reader, path string, contentType string) (string, error) {
	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.config.Bucket),
		Key:         aws.String(path),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}

	return p.GetPublicURL(path), nil
}

func (p *S3Provider) GetPublicURL(path string) string {
	if p.config.PublicBaseURL != "" {
		return strings.TrimSuffix(p.config.PublicBaseURL, "/") + "/" + path
	}
	if p.config.Endpoint != "" {
		return strings.TrimSuffix(p.config.Endpoint, "/") + "/" + p.config.Bucket + "/" + path
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.config.Bucket, p.config.Region, path)
}

func (p *S3Provider) DeleteFile(ctx context.Context, path string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.config.Bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	return nil
}
