package docstore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads a bucket. A folder ID is a key prefix and a file ID is the
// object key.
type S3Store struct {
	client    S3API
	bucket    string
	linkBase  string
	pageSize  int
	chunkSize int
}

// S3Options configures an S3Store.
type S3Options struct {
	Bucket string

	// LinkBaseURL is prepended to object keys to form view links. Empty
	// produces s3://bucket/key links.
	LinkBaseURL string

	PageSize  int
	ChunkSize int
}

// NewS3Store wraps an S3 client.
func NewS3Store(client S3API, opts S3Options) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		linkBase:  opts.LinkBaseURL,
		pageSize:  opts.PageSize,
		chunkSize: opts.ChunkSize,
	}
}

// NewS3Client loads the default AWS configuration with optional region and
// shared profile overrides.
func NewS3Client(ctx context.Context, region, profile string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// ListFiles implements Store. Keys ending in "/" are folder markers and are
// skipped. The mime type is derived from the key extension.
func (s *S3Store) ListFiles(ctx context.Context, q Query) (*Page, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(folderPrefix(q.FolderID)),
		Delimiter: aws.String("/"),
	}
	if s.pageSize > 0 {
		input.MaxKeys = aws.Int32(int32(s.pageSize))
	}
	if q.PageToken != "" {
		input.ContinuationToken = aws.String(q.PageToken)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "list files", Target: q.FolderID, Err: err}
	}

	page := &Page{}
	if aws.ToBool(out.IsTruncated) {
		page.NextPageToken = aws.ToString(out.NextContinuationToken)
	}

	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}
		name := path.Base(key)
		mimeType := mimeTypeOf(name)
		if q.MimeType != "" && mimeType != q.MimeType {
			continue
		}
		page.Files = append(page.Files, File{
			ID:          key,
			Name:        name,
			MimeType:    mimeType,
			WebViewLink: s.link(key),
			CreatedTime: aws.ToTime(obj.LastModified),
		})
	}
	return page, nil
}

// Download implements Store.
func (s *S3Store) Download(ctx context.Context, fileID string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: err}
	}
	defer out.Body.Close()

	data, err := readChunked(out.Body, s.chunkSize)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: err}
	}
	return data, nil
}

func (s *S3Store) link(key string) string {
	if s.linkBase != "" {
		return strings.TrimSuffix(s.linkBase, "/") + "/" + key
	}
	return "s3://" + s.bucket + "/" + key
}

// folderPrefix turns a folder ID into a key prefix ending in "/".
func folderPrefix(folderID string) string {
	folderID = strings.Trim(folderID, "/")
	if folderID == "" {
		return ""
	}
	return folderID + "/"
}
