package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectClient struct {
	put     *s3.PutObjectInput
	deleted string
	putErr  error
}

func (f *fakeObjectClient) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = params
	return &s3.PutObjectOutput{ETag: aws.String(`"abc123"`)}, nil
}

func (f *fakeObjectClient) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = aws.ToString(params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestUploadReturnsPublicLocation(t *testing.T) {
	client := &fakeObjectClient{}
	u, err := newR2Uploader(client, "covers", "https://cdn.example.com/assets")
	require.NoError(t, err)

	res, err := u.Upload(context.Background(), "games/7/cover.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)

	assert.Equal(t, "games/7/cover.png", res.Key)
	assert.Equal(t, "https://cdn.example.com/assets/games/7/cover.png", res.Location)
	assert.Equal(t, "abc123", res.ETag)
	assert.Equal(t, "covers", aws.ToString(client.put.Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.put.ContentType))
}

func TestUploadSendsSizedSeekableBody(t *testing.T) {
	payload := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 512)

	tests := []struct {
		name   string
		reader func() io.Reader
	}{
		{"seekable", func() io.Reader { return bytes.NewReader(payload) }},
		{"stream", func() io.Reader { return io.MultiReader(bytes.NewReader(payload[:512]), bytes.NewReader(payload[512:])) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeObjectClient{}
			u, err := newR2Uploader(client, "covers", "https://cdn.example.com")
			require.NoError(t, err)

			_, err = u.Upload(context.Background(), "games/1/cover.png", "image/png", tt.reader())
			require.NoError(t, err)

			require.NotNil(t, client.put.ContentLength)
			assert.Equal(t, int64(len(payload)), *client.put.ContentLength)
			_, seekable := client.put.Body.(io.Seeker)
			assert.True(t, seekable)

			sent, err := io.ReadAll(client.put.Body)
			require.NoError(t, err)
			assert.Equal(t, payload, sent)
		})
	}
}

func TestUploadSizesFromCurrentOffset(t *testing.T) {
	client := &fakeObjectClient{}
	u, err := newR2Uploader(client, "covers", "https://cdn.example.com")
	require.NoError(t, err)

	reader := bytes.NewReader([]byte("headerbody"))
	_, err = reader.Seek(6, io.SeekStart)
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "k", "image/png", reader)
	require.NoError(t, err)
	assert.Equal(t, int64(4), aws.ToInt64(client.put.ContentLength))
}

func TestUploadPropagatesErrors(t *testing.T) {
	client := &fakeObjectClient{putErr: errors.New("denied")}
	u, err := newR2Uploader(client, "covers", "https://cdn.example.com")
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "k", "image/png", strings.NewReader(""))
	assert.ErrorContains(t, err, "denied")
}

func TestDeleteUsesKey(t *testing.T) {
	client := &fakeObjectClient{}
	u, err := newR2Uploader(client, "covers", "https://cdn.example.com/")
	require.NoError(t, err)

	require.NoError(t, u.Delete(context.Background(), "games/7/cover.png"))
	assert.Equal(t, "games/7/cover.png", client.deleted)
}

func TestGetPublicURL(t *testing.T) {
	u, err := newR2Uploader(&fakeObjectClient{}, "covers", "https://cdn.example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/games/1/a.jpg", u.GetPublicURL("/games/1/a.jpg"))
	assert.Equal(t, "", u.GetPublicURL(""))
}

func TestNewR2UploaderRejectsBadBaseURL(t *testing.T) {
	_, err := newR2Uploader(&fakeObjectClient{}, "covers", "not a url")
	assert.Error(t, err)
}

func TestExtensionForImageType(t *testing.T) {
	ext, err := ExtensionForImageType("image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	_, err = ExtensionForImageType("application/pdf")
	assert.Error(t, err)
}
