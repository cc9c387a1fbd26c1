package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

// GCSConfig selects a Google Cloud Storage bucket.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
}

func (c GCSConfig) complete() bool {
	return c.Bucket != "" && (c.CredentialsFile != "" || c.EmulatorHost != "")
}

// GCSStore writes objects to a GCS bucket and uses object generations for
// conditional writes.
type GCSStore struct {
	log    *logger.Logger
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCSStore(ctx context.Context, log *logger.Logger, cfg GCSConfig, prefix string) (*GCSStore, error) {
	var opts []option.ClientOption
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(gcs.ScopeReadWrite))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{
		log:    log.With("service", "GCSStore", "bucket", cfg.Bucket),
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

func (s *GCSStore) Name() string { return "gcs" }

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) object(key string) (*gcs.ObjectHandle, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return s.client.Bucket(s.bucket).Object(prefixed(s.prefix, key)), nil
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}
	_, err = s.write(ctx, obj, data, contentType)
	return err
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.GetVersioned(ctx, key)
	return data, err
}

func (s *GCSStore) GetVersioned(ctx context.Context, key string) ([]byte, Generation, error) {
	obj, err := s.object(key)
	if err != nil {
		return nil, NoGeneration, err
	}
	r, err := obj.NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, NoGeneration, ErrNotFound
	}
	if err != nil {
		return nil, NoGeneration, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NoGeneration, fmt.Errorf("gcs read %s: %w", key, err)
	}
	return data, Generation(strconv.FormatInt(r.Attrs.Generation, 10)), nil
}

func (s *GCSStore) PutIfMatch(ctx context.Context, key string, data []byte, contentType string, match Generation) (Generation, error) {
	obj, err := s.object(key)
	if err != nil {
		return NoGeneration, err
	}
	if match == NoGeneration {
		obj = obj.If(gcs.Conditions{DoesNotExist: true})
	} else {
		gen, err := strconv.ParseInt(string(match), 10, 64)
		if err != nil {
			return NoGeneration, fmt.Errorf("gcs: bad generation %q: %w", match, err)
		}
		obj = obj.If(gcs.Conditions{GenerationMatch: gen})
	}
	attrs, err := s.write(ctx, obj, data, contentType)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return NoGeneration, ErrConflict
		}
		return NoGeneration, err
	}
	return Generation(strconv.FormatInt(attrs.Generation, 10)), nil
}

func (s *GCSStore) write(ctx context.Context, obj *gcs.ObjectHandle, data []byte, contentType string) (*gcs.ObjectAttrs, error) {
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return w.Attrs(), nil
}
