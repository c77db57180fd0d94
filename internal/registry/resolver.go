package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public npm registry.
	DefaultBaseURL = "https://registry.npmjs.org"

	acceptHeaderNameConstant          = "Accept"
	acceptHeaderValueConstant         = "application/json"
	pathSeparatorConstant             = "/"
	requestBuildFailedMessageConstant = "unable to build registry request"
	requestFailedMessageConstant      = "registry request failed"
	unexpectedStatusMessageConstant   = "registry returned unexpected status"
	decodeFailedMessageConstant       = "unable to decode registry response"
	latestTagMissingMessageConstant   = "registry response has no latest version"
	versionResolvedMessageConstant    = "resolved latest package version"
	packageNameLogFieldConstant       = "package_name"
	statusCodeLogFieldConstant        = "status_code"
	versionLogFieldConstant           = "version"
	requestURLLogFieldConstant        = "url"
	unexpectedStatusTemplateConstant  = "unexpected status %d"
)

// LatestVersionResolver resolves the latest published version of a package.
// The boolean result is false when the version could not be determined.
type LatestVersionResolver interface {
	ResolveLatestVersion(executionContext context.Context, packageName string) (string, bool)
}

// HTTPClient executes HTTP requests.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// NPMRegistryClient queries an npm compatible registry for dist-tags.
type NPMRegistryClient struct {
	httpClient HTTPClient
	baseURL    string
	logger     *zap.Logger
}

type packageDocument struct {
	DistributionTags map[string]string `json:"dist-tags"`
}

// NewNPMRegistryClient constructs a registry client. A nil client uses an http.Client with the given timeout; zero keeps no timeout.
func NewNPMRegistryClient(httpClient HTTPClient, baseURL string, timeout time.Duration, logger *zap.Logger) *NPMRegistryClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if len(strings.TrimSpace(baseURL)) == 0 {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NPMRegistryClient{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, pathSeparatorConstant), logger: logger}
}

// ResolveLatestVersion fetches dist-tags.latest. Failures are logged and reported as not found.
func (client *NPMRegistryClient) ResolveLatestVersion(executionContext context.Context, packageName string) (string, bool) {
	requestURL := client.baseURL + pathSeparatorConstant + packageName
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		client.logger.Warn(requestBuildFailedMessageConstant, zap.String(packageNameLogFieldConstant, packageName), zap.Error(requestError))
		return "", false
	}
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		client.logger.Warn(requestFailedMessageConstant, zap.String(packageNameLogFieldConstant, packageName), zap.String(requestURLLogFieldConstant, requestURL), zap.Error(responseError))
		return "", false
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		client.logger.Warn(
			unexpectedStatusMessageConstant,
			zap.String(packageNameLogFieldConstant, packageName),
			zap.Int(statusCodeLogFieldConstant, response.StatusCode),
			zap.Error(fmt.Errorf(unexpectedStatusTemplateConstant, response.StatusCode)),
		)
		return "", false
	}

	var document packageDocument
	if decodeError := json.NewDecoder(response.Body).Decode(&document); decodeError != nil {
		client.logger.Warn(decodeFailedMessageConstant, zap.String(packageNameLogFieldConstant, packageName), zap.Error(decodeError))
		return "", false
	}

	latestVersion := strings.TrimSpace(document.DistributionTags["latest"])
	if len(latestVersion) == 0 {
		client.logger.Warn(latestTagMissingMessageConstant, zap.String(packageNameLogFieldConstant, packageName))
		return "", false
	}

	client.logger.Debug(versionResolvedMessageConstant, zap.String(packageNameLogFieldConstant, packageName), zap.String(versionLogFieldConstant, latestVersion))
	return latestVersion, true
}

// CachingResolver memoizes successful resolutions of another resolver for the lifetime of a run.
// Failed lookups are retried. It is not safe for concurrent use.
type CachingResolver struct {
	delegate         LatestVersionResolver
	resolvedVersions map[string]string
}

// NewCachingResolver wraps delegate with a per-run cache.
func NewCachingResolver(delegate LatestVersionResolver) *CachingResolver {
	return &CachingResolver{delegate: delegate, resolvedVersions: make(map[string]string)}
}

// ResolveLatestVersion returns the cached version or asks the delegate.
func (resolver *CachingResolver) ResolveLatestVersion(executionContext context.Context, packageName string) (string, bool) {
	if version, cached := resolver.resolvedVersions[packageName]; cached {
		return version, true
	}
	version, resolved := resolver.delegate.ResolveLatestVersion(executionContext, packageName)
	if resolved {
		resolver.resolvedVersions[packageName] = version
	}
	return version, resolved
}
