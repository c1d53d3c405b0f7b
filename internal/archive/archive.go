// Package archive exports finalized articles as JSON objects to an
// S3-compatible bucket such as Cloudflare R2.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bilgisen/factcheck/internal/models"
)

// Putter is the part of the S3 client the archiver uses
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
}

// Record is the archived document
type Record struct {
	Article    *models.Article `json:"article"`
	ArchivedAt time.Time       `json:"archived_at"`
}

type Archiver struct {
	client Putter
	bucket string
	prefix string
	now    func() time.Time
}

// NewClient builds an S3 client for cfg. An empty endpoint uses AWS itself.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func New(client Putter, bucket, prefix string) *Archiver {
	if prefix == "" {
		prefix = "finalized"
	}
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// Key is the object key for an article, grouped by submission day. The
// submission time never changes, so an article always maps to one key.
func (a *Archiver) Key(article *models.Article) string {
	day := article.SubmittedAt.UTC()
	if article.SubmittedAt.IsZero() {
		day = a.now().UTC()
	}
	return path.Join(a.prefix, day.Format("2006/01/02"), article.ID+".json")
}

// Store uploads the article. Re-finalizing overwrites the same key.
func (a *Archiver) Store(ctx context.Context, article *models.Article) error {
	body, err := json.Marshal(Record{Article: article, ArchivedAt: a.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode article %s: %w", article.ID, err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(article)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload article %s: %w", article.ID, err)
	}
	return nil
}

// ArticleFlagged is ignored; only final verdicts are archived
func (a *Archiver) ArticleFlagged(context.Context, *models.Article) error { return nil }

func (a *Archiver) ArticleFinalized(ctx context.Context, article *models.Article) error {
	return a.Store(ctx, article)
}
