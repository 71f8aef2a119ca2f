package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv := New(afs.New())
	base := "mem://localhost/storage-test"

	upload, err := srv.Method("upload")
	require.NoError(t, err)
	uploaded := &UploadOutput{}
	require.NoError(t, upload(ctx, &UploadInput{URL: base + "/in/order.json", Text: `{"id":1}`}, uploaded))
	assert.Equal(t, "order.json", uploaded.Asset.Name)
	assert.Equal(t, "application/json", uploaded.Asset.ContentType)
	assert.EqualValues(t, 8, uploaded.Asset.Size)

	list, err := srv.Method("list")
	require.NoError(t, err)
	listed := &ListOutput{}
	require.NoError(t, list(ctx, &ListInput{URL: base + "/in"}, listed))
	require.Len(t, listed.Assets, 1)
	assert.Equal(t, "order.json", listed.Assets[0].Name)

	download, err := srv.Method("download")
	require.NoError(t, err)
	downloaded := &DownloadOutput{}
	require.NoError(t, download(ctx, &DownloadInput{URLs: []string{base + "/in/order.json"}, Dest: base + "/out"}, downloaded))
	require.Len(t, downloaded.Assets, 1)
	assert.Equal(t, `{"id":1}`, string(downloaded.Assets[0].Data))
	exists, err := afs.New().Exists(ctx, base+"/out/order.json")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Error(t, download(ctx, &DownloadInput{URLs: []string{base + "/missing.json"}}, &DownloadOutput{}))
	assert.Error(t, upload(ctx, &UploadInput{}, &UploadOutput{}))
	assert.Error(t, list(ctx, &ListOutput{}, listed))
	_, err = srv.Method("delete")
	assert.Error(t, err)
}
