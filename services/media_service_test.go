package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "github.com/techagentng/marketplace/errors"
)

type memoryUploader struct {
	keys   []string
	bodies [][]byte
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	u.bodies = append(u.bodies, b)
	return "https://cdn.test/" + key, nil
}

// fileHeader builds a multipart.FileHeader the way gin receives one.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadListingImageResizesAndStoresJPEG(t *testing.T) {
	up := &memoryUploader{}
	svc := NewMediaService(up, nil)

	url, err := svc.UploadListingImage(context.Background(), 7, fileHeader(t, "big.png", pngBytes(t, 3200, 800)))
	require.NoError(t, err)
	require.Len(t, up.keys, 1)
	assert.Regexp(t, `^listings/7/[0-9a-f-]{36}\.jpg$`, up.keys[0])
	assert.Equal(t, "https://cdn.test/"+up.keys[0], url)

	img, err := imaging.Decode(bytes.NewReader(up.bodies[0]))
	require.NoError(t, err)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
	assert.Equal(t, "image/jpeg", http.DetectContentType(up.bodies[0]))
}

func TestUploadRejectsNonImages(t *testing.T) {
	up := &memoryUploader{}
	svc := NewMediaService(up, nil)

	_, err := svc.UploadProfilePicture(context.Background(), 1, fileHeader(t, "notes.txt", []byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, errs.Status(err))
	assert.Empty(t, up.keys)
}

func TestUploadWithoutUploader(t *testing.T) {
	svc := NewMediaService(nil, nil)
	_, err := svc.UploadProfilePicture(context.Background(), 1, fileHeader(t, "a.png", pngBytes(t, 10, 10)))
	assert.Equal(t, http.StatusServiceUnavailable, errs.Status(err))
}
