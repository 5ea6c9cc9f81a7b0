package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-restaurant-pos/internal/aws"
)

// ErrUnsupportedType is returned for uploads that are not a known image type.
var ErrUnsupportedType = errors.New("unsupported image type")

// ImageStore saves uploaded images and returns the URL clients fetch them from.
// Delete takes a URL returned by Save.
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// objectName keeps the extension of the upload and replaces the rest with a uuid.
func objectName(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w %q", ErrUnsupportedType, ext)
	}
	return uuid.NewString() + ext, nil
}

// Local writes images under Dir and serves them below PublicPath.
type Local struct {
	Dir        string
	PublicPath string
}

func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Dir: dir, PublicPath: publicPath}, nil
}

func (l *Local) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	name, err := objectName(filename)
	if err != nil {
		return "", err
	}
	f, err := os.Create(filepath.Join(l.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path.Join(l.PublicPath, name), nil
}

func (l *Local) Delete(ctx context.Context, url string) error {
	name := path.Base(url)
	if !strings.HasPrefix(url, l.PublicPath) || name == "." || name == "/" {
		return fmt.Errorf("%q is not a local upload", url)
	}
	if err := os.Remove(filepath.Join(l.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// S3 uploads images to a bucket. BaseURL is prefixed to the object key.
type S3 struct {
	Client  aws.S3API
	Bucket  string
	BaseURL string
	Prefix  string
}

func NewS3(client aws.S3API, bucket, baseURL string) *S3 {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3{Client: client, Bucket: bucket, BaseURL: strings.TrimRight(baseURL, "/"), Prefix: "uploads"}
}

func (s *S3) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	name, err := objectName(filename)
	if err != nil {
		return "", err
	}
	key := path.Join(s.Prefix, name)
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(s.Bucket),
		Key:    sdkaws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.BaseURL + "/" + key, nil
}

func (s *S3) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok {
		return fmt.Errorf("%q is not in bucket %s", url, s.Bucket)
	}
	if _, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: sdkaws.String(s.Bucket),
		Key:    sdkaws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
