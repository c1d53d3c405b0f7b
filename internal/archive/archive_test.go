package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/factcheck/internal/models"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestArticleFinalizedUploadsJSON(t *testing.T) {
	put := &fakePutter{}
	a := New(put, "verdicts", "")
	now := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	submittedAt := time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC)
	verifiedAt := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	article := &models.Article{
		ID:              "a1",
		SubmittedAt:     submittedAt,
		Title:           "Title",
		Status:          models.StatusAdminReviewed,
		FinalVerdict:    models.VerdictReal,
		AdminVerified:   true,
		AdminVerifiedAt: &verifiedAt,
	}
	require.NoError(t, a.ArticleFinalized(context.Background(), article))

	require.Len(t, put.inputs, 1)
	in := put.inputs[0]
	assert.Equal(t, "verdicts", aws.ToString(in.Bucket))
	assert.Equal(t, "finalized/2024/05/30/a1.json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))

	var rec Record
	require.NoError(t, json.Unmarshal(put.bodies[0], &rec))
	assert.Equal(t, "a1", rec.Article.ID)
	assert.Equal(t, models.VerdictReal, rec.Article.FinalVerdict)
	assert.True(t, now.Equal(rec.ArchivedAt))
}

func TestRefinalizingOverwritesSameKey(t *testing.T) {
	put := &fakePutter{}
	a := New(put, "verdicts", "v")
	submittedAt := time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC)

	for _, day := range []int{1, 9} {
		verifiedAt := time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC)
		require.NoError(t, a.Store(context.Background(), &models.Article{
			ID:              "a1",
			SubmittedAt:     submittedAt,
			AdminVerifiedAt: &verifiedAt,
		}))
	}

	require.Len(t, put.inputs, 2)
	assert.Equal(t, "v/2024/05/30/a1.json", aws.ToString(put.inputs[0].Key))
	assert.Equal(t, aws.ToString(put.inputs[0].Key), aws.ToString(put.inputs[1].Key))
}

func TestArticleFlaggedIsIgnored(t *testing.T) {
	put := &fakePutter{}
	require.NoError(t, New(put, "b", "p").ArticleFlagged(context.Background(), &models.Article{ID: "a1"}))
	assert.Empty(t, put.inputs)
}

func TestStoreWrapsUploadErrors(t *testing.T) {
	put := &fakePutter{err: errors.New("access denied")}
	err := New(put, "b", "p").Store(context.Background(), &models.Article{ID: "a1"})
	assert.ErrorContains(t, err, "upload article a1")
	assert.ErrorContains(t, err, "access denied")
}
