/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package objectstore keeps plans as JSON objects in an S3-compatible
// bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/store"
)

// Config holds bucket settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("s3 endpoint is required"))
	}
	if strings.TrimSpace(c.Bucket) == "" {
		errs = append(errs, errors.New("s3 bucket is required"))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New("s3 access key and secret key must be set together"))
	}
	return errors.Join(errs...)
}

// NewClient builds a minio client for cfg.
func NewClient(cfg Config) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
}

// Store implements store.Store on one bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
	region string
}

var _ store.Store = (*Store)(nil)

// New wraps client.
func New(client *minio.Client, cfg Config) *Store {
	return &Store{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/"), region: cfg.Region}
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, id string) (*plan.Plan, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(s.prefix, id), minio.GetObjectOptions{})
	if err != nil {
		return nil, handleNotFound(err, id)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, handleNotFound(err, id)
	}
	p, err := plan.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return p, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, id string, p *plan.Plan) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}
	data, err := plan.Encode(p, plan.FormatJSON)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", id, err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, objectKey(s.prefix, id), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: map[string]string{"fingerprint": plan.Fingerprint(p)},
	})
	if err != nil {
		return fmt.Errorf("put plan %s: %w", id, err)
	}
	return nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if s.prefix != "" {
		opts.Prefix = s.prefix + "/"
	}
	var ids []string
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list plans: %w", obj.Err)
		}
		if id, ok := idFromKey(s.prefix, obj.Key); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}
	key := objectKey(s.prefix, id)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return handleNotFound(err, id)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove plan %s: %w", id, err)
	}
	return nil
}

func objectKey(prefix, id string) string {
	if prefix == "" {
		return id + ".json"
	}
	return path.Join(prefix, id+".json")
}

func idFromKey(prefix, key string) (string, bool) {
	if prefix != "" {
		var ok bool
		if key, ok = strings.CutPrefix(key, prefix+"/"); !ok {
			return "", false
		}
	}
	id, ok := strings.CutSuffix(key, ".json")
	if !ok || store.ValidateID(id) != nil {
		return "", false
	}
	return id, true
}

func handleNotFound(err error, id string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return fmt.Errorf("load plan %s: %w", id, err)
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
