package filestorage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestParseGSURI(t *testing.T) {
	bucket, object, err := ParseGSURI("gs://my-bucket/1/2024/05/cat.png")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "1/2024/05/cat.png", object)

	bucket, object, err = ParseGSURI("gs://my-bucket")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Empty(t, object)

	_, _, err = ParseGSURI("gs:///no-bucket")
	assert.ErrorIs(t, err, ErrInvalidGSURI)

	_, _, err = ParseGSURI("/var/www/uploads")
	assert.ErrorIs(t, err, ErrInvalidGSURI)
}

func TestJoinObject(t *testing.T) {
	assert.Equal(t, "1/2024/05/cat.png", JoinObject("1", "/2024/05", "cat.png"))
	assert.Equal(t, "cat.png", JoinObject("", "/", "cat.png"))
	assert.Equal(t, "", JoinObject())
}

func TestClientInfoHeaders(t *testing.T) {
	info := ClientInfo{HostVersion: "6.5.3", PluginVersion: "0.1.9"}
	assert.Equal(t, "wp/6.5.3 wp-gcs/0.1.9", info.InfoHeader())

	value := info.APIClientValue()
	tokens := strings.Fields(value)
	require.Len(t, tokens, 4)
	assert.True(t, strings.HasPrefix(tokens[0], "gl-go/"))
	assert.True(t, strings.HasPrefix(tokens[1], "gccl/"))
	assert.Equal(t, "wp/6.5.3", tokens[2])
	assert.Equal(t, "wp-gcs/0.1.9", tokens[3])

	empty := ClientInfo{}
	assert.Equal(t, "wp/unknown wp-gcs/unknown", empty.InfoHeader())
}

func TestHeaderToken(t *testing.T) {
	assert.Equal(t, "1.2.3", headerToken(" 1.2.3 "))
	assert.Equal(t, "1.2.3", headerToken("1.2.3 beta"))
	assert.Equal(t, "a-b", headerToken("a/b"))
	assert.Equal(t, "unknown", headerToken(""))
	assert.NotEmpty(t, GoVersion())
	assert.False(t, strings.HasPrefix(GoVersion(), "go"))
	assert.NotEmpty(t, SDKVersion())
}

type fakeGCS struct {
	mu      sync.Mutex
	headers    []string
	methods    []string
	conditions []string
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.headers = append(f.headers, r.Header.Get(APIClientHeader))
	f.methods = append(f.methods, r.Method)
	f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	if strings.Contains(r.URL.Path, "missing") {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"No such object"}}`)
		return
	}
	if r.Method == http.MethodPost && strings.Contains(r.URL.Query().Get("name")+string(body), "taken") {
		f.mu.Lock()
		f.conditions = append(f.conditions, r.URL.Query().Get("ifGenerationMatch"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = io.WriteString(w, `{"error":{"code":412,"message":"At least one of the pre-conditions you specified did not hold."}}`)
		return
	}
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = io.WriteString(w, `{"bucket":"media-bucket","name":"1/cat.png","generation":"42","size":"5","contentType":"image/png"}`)
}

func newTestClient(t *testing.T) (*GCSStorageProvider, *fakeGCS) {
	t.Helper()
	fake := &fakeGCS{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	info := ClientInfo{HostVersion: "6.5.3", PluginVersion: "0.1.9"}
	client, err := NewStorageClient(context.Background(), info, http.DefaultTransport,
		option.WithEndpoint(srv.URL+"/storage/v1/"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewGCSStorageProvider(client), fake
}

func TestNewStorageClient_SendsAPIClientHeader(t *testing.T) {
	provider, fake := newTestClient(t)

	_, err := provider.client.Bucket("media-bucket").Object("1/cat.png").Attrs(context.Background())
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.headers)
	tokens := strings.Fields(fake.headers[0])
	require.Len(t, tokens, 4, "header was %q", fake.headers[0])
	assert.Equal(t, "gl-go/"+GoVersion(), tokens[0])
	assert.Equal(t, "gccl/"+SDKVersion(), tokens[1])
	assert.Equal(t, "wp/6.5.3", tokens[2])
	assert.Equal(t, "wp-gcs/0.1.9", tokens[3])
}

func TestGCSStorageProvider_UploadFile(t *testing.T) {
	provider, fake := newTestClient(t)

	res, err := provider.UploadFile(context.Background(), "media-bucket", "1/cat.png", "image/png", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "media-bucket", res.Bucket)
	assert.Equal(t, "1/cat.png", res.Name)
	assert.Equal(t, int64(42), res.Generation)
	assert.Equal(t, int64(5), res.Size)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, h := range fake.headers {
		assert.True(t, strings.HasSuffix(h, "wp/6.5.3 wp-gcs/0.1.9"), "header was %q", h)
	}

	_, err = provider.UploadFile(context.Background(), "", "1/cat.png", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestGCSStorageProvider_UploadFileKeepsExistingObject(t *testing.T) {
	provider, fake := newTestClient(t)

	_, err := provider.UploadFile(context.Background(), "media-bucket", "1/taken.png", "image/png", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrObjectExists)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"0"}, fake.conditions)
}

func TestGCSStorageProvider_DeleteFile(t *testing.T) {
	provider, fake := newTestClient(t)

	require.NoError(t, provider.DeleteFile(context.Background(), "media-bucket", "1/cat.png"))
	require.NoError(t, provider.DeleteFile(context.Background(), "media-bucket", "1/missing.png"), "missing objects count as deleted")
	assert.Error(t, provider.DeleteFile(context.Background(), "media-bucket", ""))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.methods, http.MethodDelete)
}

func TestGCSStorageProvider_NotConfigured(t *testing.T) {
	provider := NewGCSStorageProvider(nil)
	ctx := context.Background()

	_, err := provider.UploadFile(ctx, "b", "o", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, provider.DeleteFile(ctx, "b", "o"), ErrNotConfigured)
	_, err = provider.GetSignedURL(ctx, "b", "o", 5)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
