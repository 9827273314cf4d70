package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"image"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	DecodeBase64Image(encoded string) ([]byte, error)
	NormalizeImage(raw []byte) (*image.NRGBA, error)
	EncodeJPEG(img image.Image) ([]byte, error)
	StageImage(img image.Image) (string, func(), error)
}

type utils struct {
	maxFileSize int64
	jpegQuality int
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
		jpegQuality: 90,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return errors.New("no file uploaded")
	}

	if file.Size > u.maxFileSize {
		return errors.New("file size exceeds limit")
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return errors.New("uploaded file is not an image")
	}

	return nil
}

// DecodeBase64Image accepts plain base64 as well as data-URI payloads
// ("data:image/png;base64,...").
func (u *utils) DecodeBase64Image(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx != -1 {
			encoded = encoded[idx+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("invalid base64 image data")
	}

	return raw, nil
}

// NormalizeImage decodes raw image bytes into the canonical RGB form every
// detector backend consumes. Grayscale, palette and alpha inputs are all
// flattened into NRGBA here.
func (u *utils) NormalizeImage(raw []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.New("bytes do not decode as an image")
	}

	return imaging.Clone(img), nil
}

func (u *utils) EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(u.jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StageImage writes img to a uniquely-named JPEG in the OS temp dir and
// returns its path together with a release func. The file belongs to one
// request only; callers must defer the release on every exit path.
func (u *utils) StageImage(img image.Image) (string, func(), error) {
	name := filepath.Join(os.TempDir(), "meme-"+uuid.NewString()+".jpg")

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, err
	}

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(u.jpegQuality)); err != nil {
		f.Close()
		os.Remove(name)
		return "", nil, err
	}

	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", nil, err
	}

	release := func() {
		os.Remove(name)
	}

	return name, release, nil
}
