package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ logSource = &s3Source{}

// s3Source reads an archived log object, optionally compressed.
type s3Source struct {
	Client s3GetObjectAPI
	Bucket string
	Key    string
}

func (ss *s3Source) String() string { return "s3://" + ss.Bucket + "/" + ss.Key }

func (ss *s3Source) Open(ctx context.Context, w window) (io.ReadCloser, error) {
	resp, err := ss.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.Bucket),
		Key:    aws.String(ss.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("error getting object %s: %w", ss, err)
	}

	rc, err := openDecompressed(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("error reading object %s: %w", ss, err)
	}
	return rc, nil
}

func newS3Client(ctx context.Context, cfg configS3) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Credentials.KeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Credentials.KeyID, cfg.Credentials.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(cfg.Endpoint)
		}
	}), nil
}
