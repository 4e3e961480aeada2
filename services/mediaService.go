package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	fig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/config"
	errs "github.com/techagentng/marketplace/errors"
	"github.com/techagentng/marketplace/logging"
)

const (
	MaxImageSize = 10 << 20
	maxImageEdge = 1600
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type MediaService interface {
	UploadListingImage(ctx context.Context, listingID uint, file *multipart.FileHeader) (string, error)
	UploadProfilePicture(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error)
}

type mediaService struct {
	Config   *config.Config
	uploader Uploader
}

func NewMediaService(uploader Uploader, conf *config.Config) MediaService {
	return &mediaService{
		Config:   conf,
		uploader: uploader,
	}
}

func (m *mediaService) UploadListingImage(ctx context.Context, listingID uint, file *multipart.FileHeader) (string, error) {
	return m.process(ctx, fmt.Sprintf("listings/%d", listingID), file)
}

func (m *mediaService) UploadProfilePicture(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error) {
	return m.process(ctx, fmt.Sprintf("users/%d", userID), file)
}

// process validates the upload, fits it into maxImageEdge, re-encodes it as
// JPEG and stores it under folder.
func (m *mediaService) process(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if m.uploader == nil {
		return "", errs.New("image uploads are not configured", http.StatusServiceUnavailable)
	}
	if fh == nil {
		return "", errs.New("image file is required", http.StatusBadRequest)
	}
	if fh.Size > MaxImageSize {
		return "", errs.New(fmt.Sprintf("image must be at most %d MB", MaxImageSize>>20), http.StatusBadRequest)
	}

	f, err := fh.Open()
	if err != nil {
		return "", errs.New("unable to read image", http.StatusBadRequest)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return "", errs.New("unable to read image", http.StatusBadRequest)
	}
	if len(raw) > MaxImageSize {
		return "", errs.New(fmt.Sprintf("image must be at most %d MB", MaxImageSize>>20), http.StatusBadRequest)
	}
	if ct := http.DetectContentType(raw); !allowedImageTypes[ct] {
		return "", errs.New("unsupported image type "+ct, http.StatusBadRequest)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", errs.New("unable to decode image", http.StatusBadRequest)
	}
	img = imaging.Fit(img, maxImageEdge, maxImageEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		logging.Error().Err(err).Msg("encode image")
		return "", errs.ErrInternalServerError
	}

	key := fmt.Sprintf("%s/%s.jpg", strings.Trim(folder, "/"), uuid.NewString())
	url, err := m.uploader.Upload(ctx, key, "image/jpeg", bytes.NewReader(buf.Bytes()))
	if err != nil {
		logging.Error().Err(err).Str("key", key).Msg("upload image")
		return "", errs.New("unable to store image", http.StatusBadGateway)
	}
	return url, nil
}

// S3Uploader puts objects into one bucket. A custom endpoint (MinIO,
// LocalStack) switches to path-style addressing.
type S3Uploader struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

func NewS3Uploader(ctx context.Context, c *config.Config) (*S3Uploader, error) {
	if c.AWSBucket == "" {
		return nil, errors.New("aws bucket is not configured")
	}
	opts := []func(*fig.LoadOptions) error{fig.WithRegion(c.AWSRegion)}
	if c.AWSAccessKeyID != "" {
		opts = append(opts, fig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AWSAccessKeyID, c.AWSSecretAccessKey, ""),
		))
	}
	cfg, err := fig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(c.AWSEndpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{client: client, bucket: c.AWSBucket, region: c.AWSRegion, endpoint: c.AWSEndpoint}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", key)
	}
	return u.URL(key), nil
}

func (u *S3Uploader) URL(key string) string {
	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.endpoint, "/"), u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
