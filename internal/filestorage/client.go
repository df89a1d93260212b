package filestorage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	phxlog "gcsmedia/backend/pkg/log"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

// APIClientHeader is the telemetry header attached to every Storage API call.
const APIClientHeader = "x-goog-api-client"

const storageModulePath = "cloud.google.com/go/storage"

// ClientInfo identifies the host CMS and this plugin to the Storage API.
type ClientInfo struct {
	HostVersion   string
	PluginVersion string
}

// InfoHeader returns the host/plugin half of the x-goog-api-client value.
func (i ClientInfo) InfoHeader() string {
	return fmt.Sprintf("wp/%s wp-gcs/%s", headerToken(i.HostVersion), headerToken(i.PluginVersion))
}

// APIClientValue is the full x-goog-api-client value:
// gl-go/<go> gccl/<sdk> wp/<host> wp-gcs/<plugin>.
func (i ClientInfo) APIClientValue() string {
	return fmt.Sprintf("gl-go/%s gccl/%s %s", GoVersion(), SDKVersion(), i.InfoHeader())
}

// GoVersion is the running Go version without the "go" prefix.
func GoVersion() string {
	return headerToken(strings.TrimPrefix(runtime.Version(), "go"))
}

var (
	sdkVersionOnce sync.Once
	sdkVersion     string
)

// SDKVersion is the version of cloud.google.com/go/storage linked into the binary.
func SDKVersion() string {
	sdkVersionOnce.Do(func() {
		sdkVersion = "unknown"
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, dep := range info.Deps {
			if dep.Path != storageModulePath {
				continue
			}
			if dep.Replace != nil {
				dep = dep.Replace
			}
			if dep.Version != "" && dep.Version != "(devel)" {
				sdkVersion = strings.TrimPrefix(dep.Version, "v")
			}
			return
		}
	})
	return sdkVersion
}

// headerToken keeps a version usable as one key/value token: no spaces,
// no slashes, never empty.
func headerToken(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, " \t"); i >= 0 {
		v = v[:i]
	}
	v = strings.ReplaceAll(v, "/", "-")
	if v == "" {
		return "unknown"
	}
	return v
}

// apiClientTransport sets the x-goog-api-client header on every request.
// It replaces the value the SDK sets so the header always carries exactly
// the four tokens built by ClientInfo.
type apiClientTransport struct {
	base   http.RoundTripper
	header string
}

func (t *apiClientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(APIClientHeader, t.header)
	return t.base.RoundTrip(r)
}

// NewStorageClient builds a GCS client whose requests carry the
// x-goog-api-client header for info. base overrides the HTTP transport;
// when nil, an authenticated transport is built from Application Default
// Credentials (or an unauthenticated one when STORAGE_EMULATOR_HOST is set).
// opts are appended after the transport option.
func NewStorageClient(ctx context.Context, info ClientInfo, base http.RoundTripper, opts ...option.ClientOption) (*storage.Client, error) {
	if base == nil {
		if os.Getenv("STORAGE_EMULATOR_HOST") != "" {
			base = http.DefaultTransport
		} else {
			creds, err := google.FindDefaultCredentials(ctx, storage.ScopeFullControl)
			if err != nil {
				return nil, fmt.Errorf("failed to find default credentials: %w", err)
			}
			authTransport, err := htransport.NewTransport(ctx, http.DefaultTransport, option.WithCredentials(creds))
			if err != nil {
				return nil, fmt.Errorf("failed to create authenticated transport: %w", err)
			}
			base = authTransport
		}
	}

	header := info.APIClientValue()
	httpClient := &http.Client{Transport: &apiClientTransport{base: base, header: header}}

	allOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	client, err := storage.NewClient(ctx, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Cloud Storage client: %w", err)
	}

	phxlog.L.Debug("Google Cloud Storage client created", zap.String(APIClientHeader, header))
	return client, nil
}
