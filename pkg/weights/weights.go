package weights

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Resolve maps MODEL_PATH to a file on the local filesystem. Plain paths
// pass through untouched; s3://bucket/key checkpoints are downloaded to a
// local cache once and reused across restarts.
func Resolve(modelPath string) (string, error) {
	if !strings.HasPrefix(modelPath, "s3://") {
		return modelPath, nil
	}

	bucket, key, err := parseS3URL(modelPath)
	if err != nil {
		return "", err
	}

	cacheDir := filepath.Join(os.TempDir(), "meme-shield-models")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}

	local := filepath.Join(cacheDir, filepath.Base(key))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	sess, err := newSession()
	if err != nil {
		return "", err
	}

	f, err := os.Create(local)
	if err != nil {
		return "", err
	}
	defer f.Close()

	downloader := s3manager.NewDownloader(sess)
	if _, err := downloader.Download(f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("failed to download model weights from %s: %w", modelPath, err)
	}

	return local, nil
}

func parseS3URL(raw string) (string, string, error) {
	trimmed := strings.TrimPrefix(raw, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 model path %q, expected s3://bucket/key", raw)
	}
	return parts[0], parts[1], nil
}

func newSession() (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})
}
