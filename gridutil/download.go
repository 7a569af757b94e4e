/*
Copyright © 2026 the gridcast authors.
This file is part of gridcast.

gridcast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gridcast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gridcast.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or a blob storage location.
// If it is, it downloads the file to a temporary directory and
// returns the path to the downloaded file. Otherwise the given
// path is returned.
func maybeDownload(ctx context.Context, p string) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		return p, nil
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return downloadHTTP(ctx, p)
	}
	if IsBlob(p) {
		return downloadBlob(ctx, p)
	}
	return p, nil
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file. Failed requests are retried with
// exponential backoff.
func downloadHTTP(ctx context.Context, p string) (string, error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("gridutil: parsing download URL: %v", err)
	}
	dst, err := tempFile(path.Base(u.Path))
	if err != nil {
		return "", err
	}
	logrus.WithField("url", p).Info("gridutil: downloading")

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	err = backoff.RetryNotify(
		func() error {
			req, err := http.NewRequest("GET", p, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			resp, err := http.DefaultClient.Do(req.WithContext(ctx))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("gridutil: downloading %s: %s", p, resp.Status)
				if resp.StatusCode < 500 {
					return backoff.Permanent(err)
				}
				return err
			}
			return writeFile(dst, resp.Body)
		},
		backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			logrus.WithField("url", p).Warnf("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return "", err
	}
	return dst, nil
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// Even if name contains subdirectories, only the base directory name will be
// used when opening the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("gridutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("gridutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, fmt.Errorf("gridutil: creating AWS session: %v", err)
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, p string) (string, error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("gridutil: parsing blob URL: %v", err)
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return "", fmt.Errorf("gridutil: opening %s: %v", p, err)
	}
	defer r.Close()
	logrus.WithField("blob", p).Info("gridutil: downloading")
	dst, err := tempFile(path.Base(key))
	if err != nil {
		return "", err
	}
	if err := writeFile(dst, r); err != nil {
		return "", err
	}
	return dst, nil
}

// tempFile returns a path with the given base name in a new temporary
// directory.
func tempFile(base string) (string, error) {
	dir, err := ioutil.TempDir("", "gridcast")
	if err != nil {
		return "", fmt.Errorf("gridutil: failed creating temporary download directory: %v", err)
	}
	if base == "" || base == "." || base == "/" {
		base = "download"
	}
	return filepath.Join(dir, base), nil
}

// writeFile copies r into a new file at path p.
func writeFile(p string, r io.Reader) error {
	w, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("gridutil: failed creating file for download: %v", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("gridutil: downloading to %s: %v", p, err)
	}
	return w.Close()
}
