package registry_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mlefree/mle-best-practices/internal/registry"
)

const (
	testCaseNameTemplateConstant = "%d_%s"
)

func TestNPMRegistryClientResolvesLatestVersion(testInstance *testing.T) {
	testCases := []struct {
		name             string
		packageName      string
		statusCode       int
		body             string
		expectedVersion  string
		expectedResolved bool
	}{
		{
			name:             "plain_package",
			packageName:      "prettier",
			statusCode:       http.StatusOK,
			body:             `{"name":"prettier","dist-tags":{"latest":"3.3.3","next":"4.0.0-alpha"}}`,
			expectedVersion:  "3.3.3",
			expectedResolved: true,
		},
		{
			name:             "scoped_package",
			packageName:      "@typescript-eslint/parser",
			statusCode:       http.StatusOK,
			body:             `{"dist-tags":{"latest":"8.2.0"}}`,
			expectedVersion:  "8.2.0",
			expectedResolved: true,
		},
		{
			name:        "not_found",
			packageName: "missing-package",
			statusCode:  http.StatusNotFound,
			body:        `{"error":"Not found"}`,
		},
		{
			name:        "malformed_body",
			packageName: "eslint",
			statusCode:  http.StatusOK,
			body:        `<html>`,
		},
		{
			name:        "missing_latest_tag",
			packageName: "eslint",
			statusCode:  http.StatusOK,
			body:        `{"dist-tags":{}}`,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			var requestedPath string
			var acceptHeader string
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				requestedPath = request.URL.Path
				acceptHeader = request.Header.Get("Accept")
				writer.WriteHeader(testCase.statusCode)
				_, _ = writer.Write([]byte(testCase.body))
			}))
			defer server.Close()

			observedCore, observedLogs := observer.New(zapcore.DebugLevel)
			client := registry.NewNPMRegistryClient(server.Client(), server.URL+"/", 0, zap.New(observedCore))

			version, resolved := client.ResolveLatestVersion(context.Background(), testCase.packageName)
			require.Equal(testInstance, testCase.expectedResolved, resolved)
			require.Equal(testInstance, testCase.expectedVersion, version)
			require.Equal(testInstance, "/"+testCase.packageName, requestedPath)
			require.Equal(testInstance, "application/json", acceptHeader)
			require.Equal(testInstance, !testCase.expectedResolved, observedLogs.FilterLevelExact(zapcore.WarnLevel).Len() == 1)
		})
	}
}

func TestNPMRegistryClientReportsTransportFailures(testInstance *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	client := registry.NewNPMRegistryClient(nil, serverURL, 0, nil)
	version, resolved := client.ResolveLatestVersion(context.Background(), "eslint")
	require.False(testInstance, resolved)
	require.Empty(testInstance, version)
}

type countingResolver struct {
	calls    map[string]int
	versions map[string]string
}

func (resolver *countingResolver) ResolveLatestVersion(_ context.Context, packageName string) (string, bool) {
	resolver.calls[packageName]++
	version, found := resolver.versions[packageName]
	return version, found
}

func TestCachingResolverMemoizesSuccessfulLookups(testInstance *testing.T) {
	delegate := &countingResolver{calls: map[string]int{}, versions: map[string]string{"eslint": "9.9.0"}}
	resolver := registry.NewCachingResolver(delegate)

	for attempt := 0; attempt < 3; attempt++ {
		version, resolved := resolver.ResolveLatestVersion(context.Background(), "eslint")
		require.True(testInstance, resolved)
		require.Equal(testInstance, "9.9.0", version)

		_, missingResolved := resolver.ResolveLatestVersion(context.Background(), "missing")
		require.False(testInstance, missingResolved)
	}

	require.Equal(testInstance, 1, delegate.calls["eslint"])
	require.Equal(testInstance, 3, delegate.calls["missing"])
}
