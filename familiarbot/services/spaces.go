package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	botconfig "github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
)

// ObjectHeader is the part of the S3 API the image checks need.
type ObjectHeader interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// SpacesService resolves card image keys against a DigitalOcean Spaces bucket.
type SpacesService struct {
	client   ObjectHeader
	bucket   string
	region   string
	cardRoot string
}

func NewSpacesService(ctx context.Context, key, secret, region, bucket, cardRoot string) (*SpacesService, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load spaces config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.digitaloceanspaces.com", region))
	})

	return NewSpacesServiceWithClient(client, bucket, region, cardRoot), nil
}

func NewSpacesServiceWithClient(client ObjectHeader, bucket, region, cardRoot string) *SpacesService {
	return &SpacesService{
		client:   client,
		bucket:   bucket,
		region:   region,
		cardRoot: strings.Trim(cardRoot, "/"),
	}
}

// ObjectKey is the bucket key of a card image. Absolute URLs are returned untouched.
func (s *SpacesService) ObjectKey(image string) string {
	image = strings.TrimPrefix(image, "/")
	if s.cardRoot == "" {
		return image
	}
	return s.cardRoot + "/" + image
}

// ImageURL returns the public CDN address of a card image.
func (s *SpacesService) ImageURL(image string) string {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	u := url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.%s.cdn.digitaloceanspaces.com", s.bucket, s.region),
		Path:   "/" + s.ObjectKey(image),
	}
	return u.String()
}

type MissingImage struct {
	Card catalog.CardDefinition
	Key  string
	Err  error
}

type VerifyReport struct {
	Checked int
	Skipped int
	Missing []MissingImage
	Took    time.Duration
}

// VerifyImages checks that every card image exists in the bucket, a few requests at a time.
// Cards without an image or with an external URL are skipped.
func (s *SpacesService) VerifyImages(ctx context.Context, defs []catalog.CardDefinition) (VerifyReport, error) {
	start := time.Now()
	report := VerifyReport{}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(botconfig.ImageVerifyWorkers)

	for _, def := range defs {
		if def.Image == "" || strings.HasPrefix(def.Image, "http") {
			report.Skipped++
			continue
		}
		report.Checked++

		g.Go(func() error {
			key := s.ObjectKey(def.Image)
			_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err == nil {
				return nil
			}
			if !isNotFound(err) {
				return fmt.Errorf("failed to check image of card %d: %w", def.ID, err)
			}

			mu.Lock()
			report.Missing = append(report.Missing, MissingImage{Card: def, Key: key, Err: err})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Slice(report.Missing, func(i, j int) bool { return report.Missing[i].Card.ID < report.Missing[j].Card.ID })
	report.Took = time.Since(start)
	slog.Info("Card images verified",
		slog.String("type", "sys"),
		slog.Int("checked", report.Checked),
		slog.Int("missing", len(report.Missing)),
		slog.Duration("took", report.Took))
	return report, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
