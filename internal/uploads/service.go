package uploads

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignTTL = 15 * time.Minute

type Storage struct {
	bucket    string
	s3Client  *s3.Client
	presigner *s3.PresignClient
}

func NewStorage(bucket string, s3Client *s3.Client, presigner *s3.PresignClient) *Storage {
	return &Storage{bucket: bucket, s3Client: s3Client, presigner: presigner}
}

// Upload stores the raw file body and returns the generated object key.
func (s *Storage) Upload(ctx context.Context, filename, contentType string, body []byte) (string, error) {
	key, err := GenerateKey(filename, contentType)
	if err != nil {
		return "", err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(body),
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return "", err
	}

	return key, nil
}

// Presign returns a short-lived download URL for a stored object.
func (s *Storage) Presign(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	req := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	ps, err := s.presigner.PresignGetObject(ctx, req, func(po *s3.PresignOptions) {
		po.Expires = presignTTL
	})
	if err != nil {
		return "", err
	}

	return ps.URL, nil
}
