package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/postcraft/configs"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Service archives sweep reports to Cloudflare R2 through the S3 API.
type R2Service struct {
	config cfg.Config

	once    sync.Once
	client  objectPutter
	initErr error
}

func NewR2Service(cfg cfg.Config) *R2Service {
	return &R2Service{config: cfg}
}

func (r *R2Service) r2Client(ctx context.Context) (objectPutter, error) {
	r.once.Do(func() {
		if r.client != nil {
			return
		}
		awsCfg, err := config.LoadDefaultConfig(ctx,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
			config.WithRegion("auto"),
		)
		if err != nil {
			slog.Info(err.Error())
			r.initErr = err
			return
		}

		r.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
		})
	})
	return r.client, r.initErr
}

func (r *R2Service) UploadToR2(ctx context.Context, key string, body []byte, contentType string) error {
	client, err := r.r2Client(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

// SweepReportKey is the object key a sweep run at runAt is archived under.
func SweepReportKey(runAt time.Time) string {
	return "sweeps/" + runAt.UTC().Format("2006/01/02/150405.000000000Z") + ".json"
}

// ArchiveSweepReport uploads the JSON encoding of report.
func (r *R2Service) ArchiveSweepReport(ctx context.Context, runAt time.Time, report any) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.UploadToR2(ctx, SweepReportKey(runAt), body, "application/json")
}
