package s3blob

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://e2.example.com", normaliseEndpoint("https://e2.example.com", false))
	assert.Equal(t, "https://minio:9000", normaliseEndpoint("minio:9000", true))
	assert.Equal(t, "http://minio:9000", normaliseEndpoint("minio:9000", false))
}

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NoSuchKey{})))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(statusErr(404)))
	assert.False(t, isNotFound(statusErr(500)))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestNew_Validates(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{Region: "us-east-1"})
	require.Error(t, err)
	_, err = New(context.Background(), ClientConfig{Bucket: "snapshots"})
	require.Error(t, err)

	c, err := New(context.Background(), ClientConfig{
		Bucket: "snapshots", Region: "us-east-1",
		Endpoint: "minio:9000", AccessKey: "k", SecretKey: "s", ForcePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "snapshots", c.Bucket())
	assert.NotNil(t, NewObjects(c))
}
