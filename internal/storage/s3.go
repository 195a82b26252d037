// Package storage generates access URLs for published recordings. Playback
// goes through the public player path; raw artifacts in S3 get presigned
// links valid for one hour.
package storage

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignTTL = time.Hour

// Presigner hands out temporary URLs for recording artifacts.
type Presigner interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

// S3Presigner implements Presigner against an S3 bucket using the default
// credential chain.
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
}

func NewS3Presigner(ctx context.Context, bucket, region string) (*S3Presigner, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Presigner{presign: s3.NewPresignClient(client), bucket: bucket}, nil
}

func (p *S3Presigner) PresignedURL(ctx context.Context, key string) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &p.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return req.URL, nil
}

// PlaybackURL builds the public player link for a published recording.
func PlaybackURL(publicURL, recordID string) string {
	return fmt.Sprintf("%s/playback/presentation/2.3/%s", publicURL, recordID)
}
