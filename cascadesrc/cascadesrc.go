// Package cascadesrc resolves cascade XML files from either the local
// filesystem or an S3 bucket, caching remote downloads under a local
// directory keyed by bucket/key so a long-running server doesn't
// refetch an unchanged cascade on every request.
//
// The S3 wiring is grounded on bookpipeline's AwsConn: a lazily
// initialized session plus an s3manager.Downloader, the same shape
// used there for fetching page images ahead of OCR.
package cascadesrc

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// Source resolves cascade references of the form "s3://bucket/key" or
// a plain local path into an io.ReadCloser, downloading and caching
// S3 objects under CacheDir.
type Source struct {
	Region   string
	CacheDir string

	sess       *session.Session
	downloader *s3manager.Downloader
}

// Open returns a reader over the cascade named by ref. Local paths are
// opened directly; "s3://bucket/key" references are downloaded to
// CacheDir (or os.TempDir if unset) the first time they're requested
// and served from that cache on subsequent calls.
func (s *Source) Open(ref string) (io.ReadCloser, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "s3" {
		f, err := os.Open(ref)
		if err != nil {
			return nil, errors.Wrapf(err, "cascadesrc: opening local cascade %s", ref)
		}
		return f, nil
	}

	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, errors.Errorf("cascadesrc: malformed s3 reference %q", ref)
	}

	cacheDir := s.CacheDir
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	cachePath := filepath.Join(cacheDir, bucket, key)

	if _, err := os.Stat(cachePath); err == nil {
		f, err := os.Open(cachePath)
		if err != nil {
			return nil, errors.Wrap(err, "cascadesrc: opening cached cascade")
		}
		return f, nil
	}

	if err := s.ensureSession(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return nil, errors.Wrap(err, "cascadesrc: preparing cache directory")
	}

	f, err := os.Create(cachePath)
	if err != nil {
		return nil, errors.Wrap(err, "cascadesrc: creating cache file")
	}
	if _, err := s.downloader.Download(f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		f.Close()
		os.Remove(cachePath)
		return nil, errors.Wrapf(err, "cascadesrc: downloading s3://%s/%s", bucket, key)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrap(err, "cascadesrc: closing cache file")
	}

	reopened, err := os.Open(cachePath)
	if err != nil {
		return nil, errors.Wrap(err, "cascadesrc: reopening cached cascade")
	}
	return reopened, nil
}

func (s *Source) ensureSession() error {
	if s.sess != nil {
		return nil
	}
	region := s.Region
	if region == "" {
		region = "us-east-1"
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return errors.Wrap(err, "cascadesrc: setting up aws session")
	}
	s.sess = sess
	s.downloader = s3manager.NewDownloader(sess)
	return nil
}
