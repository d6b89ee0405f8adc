package panapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panosec/panaudit/internal/panconfig"
)

type stubTransport struct {
	responseBody string
	lastRequest  *http.Request
}

func (transport *stubTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	transport.lastRequest = request
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(transport.responseBody)),
		Header:     http.Header{},
	}, nil
}

func newStubbedClient(testInstance *testing.T, responseBody string) (*HTTPClient, *stubTransport) {
	client, constructionError := NewHTTPClient("firewall.example.com", "secret-key", nil)
	require.NoError(testInstance, constructionError)

	transport := &stubTransport{responseBody: responseBody}
	client.httpClient = &http.Client{Transport: transport}
	return client, transport
}

func TestNewHTTPClientValidation(testInstance *testing.T) {
	_, endpointError := NewHTTPClient("  ", "secret-key", nil)
	require.ErrorIs(testInstance, endpointError, ErrEndpointRequired)

	_, credentialError := NewHTTPClient("firewall.example.com", "  ", nil)
	require.ErrorIs(testInstance, credentialError, ErrCredentialRequired)
}

func TestScopeTopologyDecodesEnvelope(testInstance *testing.T) {
	responseBody := `<response status="success"><result><devicegroups><entry name="dmz"><devices><entry><serial>007</serial></entry><entry><serial> </serial></entry></devices></entry></devicegroups></result></response>`
	client, transport := newStubbedClient(testInstance, responseBody)

	topology, topologyError := client.ScopeTopology(context.Background())
	require.NoError(testInstance, topologyError)
	require.Equal(testInstance, map[string][]string{"dmz": {"007"}}, topology)

	require.Equal(testInstance, "firewall.example.com", transport.lastRequest.URL.Host)
	require.Equal(testInstance, apiPathConstant, transport.lastRequest.URL.Path)
	requestQuery := transport.lastRequest.URL.Query()
	require.Equal(testInstance, operationTypeValueConstant, requestQuery.Get(typeParameterNameConstant))
	require.Equal(testInstance, "secret-key", requestQuery.Get(keyParameterNameConstant))
}

func TestPerformRequestSurfacesErrorStatus(testInstance *testing.T) {
	responseBody := `<response status="error"><msg>denied</msg></response>`
	client, _ := newStubbedClient(testInstance, responseBody)

	_, requestError := client.ActiveLeafNodes(context.Background())
	require.Error(testInstance, requestError)

	var apiError APIError
	require.True(testInstance, errors.As(requestError, &apiError))
	require.Equal(testInstance, activeDevicesOperationNameConstant, apiError.Operation)
	require.Equal(testInstance, "error", apiError.Status)
	require.Equal(testInstance, "denied", apiError.Message)
}

func TestExportConfigurationReturnsRawDocument(testInstance *testing.T) {
	responseBody := `<config><shared></shared></config>`
	client, _ := newStubbedClient(testInstance, responseBody)

	exportContent, exportError := client.ExportConfiguration(context.Background())
	require.NoError(testInstance, exportError)
	require.Equal(testInstance, responseBody, string(exportContent))
}

func TestExportConfigurationSurfacesErrorEnvelope(testInstance *testing.T) {
	responseBody := `<response status="error"><msg>export denied</msg></response>`
	client, _ := newStubbedClient(testInstance, responseBody)

	_, exportError := client.ExportConfiguration(context.Background())
	require.Error(testInstance, exportError)

	var apiError APIError
	require.True(testInstance, errors.As(exportError, &apiError))
	require.Equal(testInstance, exportOperationNameConstant, apiError.Operation)
	require.Equal(testInstance, "error", apiError.Status)
	require.Equal(testInstance, "export denied", apiError.Message)
}

func TestUpdateCallsRejectMismatchedCategories(testInstance *testing.T) {
	client, transport := newStubbedClient(testInstance, "")

	objectError := client.UpdateObject(context.Background(), EntryPayload{Name: "x"}, panconfig.CategorySecurityPreRules, "dmz")
	require.Error(testInstance, objectError)

	policyError := client.UpdatePolicy(context.Background(), EntryPayload{Name: "x"}, panconfig.CategoryAddresses, "dmz")
	require.Error(testInstance, policyError)

	require.Nil(testInstance, transport.lastRequest)
}

func TestEntryXPath(testInstance *testing.T) {
	testCases := []struct {
		name          string
		category      panconfig.Category
		scopeName     string
		entryName     string
		expectedXPath string
	}{
		{
			name:          "shared address",
			category:      panconfig.CategoryAddresses,
			scopeName:     panconfig.SharedScopeName,
			entryName:     "corp-dns",
			expectedXPath: "/config/shared/address/entry[@name='corp-dns']",
		},
		{
			name:          "device group security pre rule",
			category:      panconfig.CategorySecurityPreRules,
			scopeName:     "dmz",
			entryName:     "allow-web",
			expectedXPath: "/config/devices/entry[@name='localhost.localdomain']/device-group/entry[@name='dmz']/pre-rulebase/security/rules/entry[@name='allow-web']",
		},
		{
			name:          "device group service group",
			category:      panconfig.CategoryServiceGroups,
			scopeName:     "branch",
			entryName:     "web-services",
			expectedXPath: "/config/devices/entry[@name='localhost.localdomain']/device-group/entry[@name='branch']/service-group/entry[@name='web-services']",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			require.Equal(subtestInstance, testCase.expectedXPath, entryXPath(testCase.category, testCase.scopeName, testCase.entryName))
		})
	}
}

func TestAPIErrorMessage(testInstance *testing.T) {
	withMessage := APIError{Operation: "update-object", Status: "error", Message: "denied"}
	require.Equal(testInstance, `update-object failed with status "error": denied`, withMessage.Error())

	withoutMessage := APIError{Operation: "update-object", Status: "error"}
	require.Equal(testInstance, `update-object failed with status "error"`, withoutMessage.Error())
}
