package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/config"
)

// Storage saves uploaded images to S3 when it is configured and to the
// local upload directory otherwise.
type Storage struct {
	uploader  *s3manager.Uploader
	bucket    string
	region    string
	uploadDir string
	baseURL   string
}

func NewStorage(cfg config.StorageConfig) (*Storage, error) {
	if cfg.UsesS3() {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		log.WithField("bucket", cfg.Bucket).Info("using S3 image storage")
		return &Storage{
			uploader: s3manager.NewUploader(sess),
			bucket:   cfg.Bucket,
			region:   cfg.AWSRegion,
		}, nil
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	log.WithField("dir", cfg.UploadDir).Warn("AWS S3 not configured, storing uploads on local disk")
	return &Storage{uploadDir: cfg.UploadDir, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

func (s *Storage) UsingS3() bool {
	return s.uploader != nil
}

// LocalDir is the directory served under /uploads, or "" with S3.
func (s *Storage) LocalDir() string {
	return s.uploadDir
}

// UploadImage stores file under folder and returns its public URL.
func (s *Storage) UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, src); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return s.save(ctx, folder, filepath.Ext(file.Filename), buf.Bytes())
}

func (s *Storage) save(ctx context.Context, folder, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString()[:8], strings.ToLower(ext))
	key := path.Join(folder, name)
	contentType := http.DetectContentType(data)

	if s.UsingS3() {
		_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload to S3: %w", err)
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
	}

	dir := filepath.Join(s.uploadDir, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return fmt.Sprintf("%s/uploads/%s", s.baseURL, key), nil
}
