package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrArtifactNotFound is returned by a Store when the named artifact does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// Store reads run artifacts by file name.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Location() string
}

// FileStore reads artifacts from a local run directory.
type FileStore struct {
	dir     string
	maxSize int64
}

// NewFileStore returns a store rooted at dir. Files larger than maxSize are
// rejected; zero means no limit.
func NewFileStore(dir string, maxSize int64) *FileStore {
	return &FileStore{dir: dir, maxSize: maxSize}
}

func (s *FileStore) Read(_ context.Context, name string) ([]byte, error) {
	p := filepath.Join(s.dir, name)
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", p, ErrArtifactNotFound)
		}
		return nil, err
	}
	if s.maxSize > 0 && info.Size() > s.maxSize {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", p, info.Size(), s.maxSize)
	}
	return os.ReadFile(p)
}

func (s *FileStore) Location() string { return s.dir }

// Dir returns the directory the store reads from.
func (s *FileStore) Dir() string { return s.dir }

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads artifacts from s3://bucket/prefix.
type S3Store struct {
	client  s3GetObjectAPI
	bucket  string
	prefix  string
	maxSize int64
}

// S3Options tunes the S3 client for non-AWS endpoints such as MinIO.
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
	MaxSize      int64
}

// NewS3Store builds an S3 client from the default AWS credential chain.
func NewS3Store(ctx context.Context, location string, opts S3Options) (*S3Store, error) {
	bucket, prefix, err := parseS3URI(location)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Store{client: client, bucket: bucket, prefix: prefix, maxSize: opts.MaxSize}, nil
}

func (s *S3Store) Read(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(s.prefix, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	var body io.Reader = out.Body
	if s.maxSize > 0 {
		body = io.LimitReader(out.Body, s.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("s3://%s/%s exceeds limit of %d bytes", s.bucket, key, s.maxSize)
	}
	return data, nil
}

func (s *S3Store) Location() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

func parseS3URI(location string) (bucket, prefix string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 location %q: %w", location, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: want s3://bucket/prefix", location)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// OpenStore returns an S3Store for s3:// locations and a FileStore otherwise.
func OpenStore(ctx context.Context, location string, opts S3Options) (Store, error) {
	if strings.HasPrefix(location, "s3://") {
		return NewS3Store(ctx, location, opts)
	}
	return NewFileStore(location, opts.MaxSize), nil
}
