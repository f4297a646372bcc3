// Package s3util mirrors a finished memories library into an S3 bucket.
package s3util

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fpang/memories-download/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// Client is the subset of *s3.Client used here.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// UploadFile uploads a local file to bucket/key, tagged with the run ID.
func UploadFile(ctx context.Context, client Client, bucket, key, localPath, runID string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket:  aws.String(bucket),
		Key:     aws.String(key),
		Body:    f,
		Tagging: RunTagging(runID),
	}
	if contentType, err := filehandler.GetMIMEType(filepath.Ext(localPath)); err == nil {
		input.ContentType = aws.String(contentType)
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("S3 PutObject %s: %w", key, err)
	}

	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Uploaded to S3")
	return nil
}

// alreadyUploaded reports whether bucket/key exists with the given size.
func alreadyUploaded(ctx context.Context, client Client, bucket, key string, size int64) bool {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false
	}
	return aws.ToInt64(head.ContentLength) == size
}
