package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]bool
	failKey string
	heads   []string
}

func (f *fakeBucket) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads = append(f.heads, *in.Key)
	if *in.Key == f.failKey {
		return nil, errors.New("connection reset")
	}
	if f.objects[*in.Key] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
}

func TestSpacesService_ImageURL(t *testing.T) {
	s := NewSpacesServiceWithClient(&fakeBucket{}, "familiars", "sgp1", "/cards/")

	require.Equal(t, "cards/mythic/ember.png", s.ObjectKey("/mythic/ember.png"))
	require.Equal(t, "https://familiars.sgp1.cdn.digitaloceanspaces.com/cards/mythic/ember.png", s.ImageURL("mythic/ember.png"))
	require.Equal(t, "https://example.com/a.png", s.ImageURL("https://example.com/a.png"))
	require.Empty(t, s.ImageURL(""))
}

func TestSpacesService_VerifyImages(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]bool{"cards/a.png": true}}
	s := NewSpacesServiceWithClient(bucket, "familiars", "sgp1", "cards")

	report, err := s.VerifyImages(context.Background(), []catalog.CardDefinition{
		{ID: 1, Name: "A", Rank: catalog.RankCommon, Image: "a.png"},
		{ID: 3, Name: "C", Rank: catalog.RankCommon, Image: "c.png"},
		{ID: 2, Name: "B", Rank: catalog.RankCommon, Image: "b.png"},
		{ID: 4, Name: "D", Rank: catalog.RankCommon},
		{ID: 5, Name: "E", Rank: catalog.RankCommon, Image: "https://cdn.example.com/e.png"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, report.Checked)
	require.Equal(t, 2, report.Skipped)
	require.Len(t, report.Missing, 2)
	require.Equal(t, int64(2), report.Missing[0].Card.ID)
	require.Equal(t, "cards/c.png", report.Missing[1].Key)
}

func TestSpacesService_VerifyImagesTransportError(t *testing.T) {
	bucket := &fakeBucket{failKey: "b.png"}
	s := NewSpacesServiceWithClient(bucket, "familiars", "sgp1", "")

	_, err := s.VerifyImages(context.Background(), []catalog.CardDefinition{
		{ID: 2, Name: "B", Rank: catalog.RankCommon, Image: "b.png"},
	})
	require.ErrorContains(t, err, "connection reset")
}
