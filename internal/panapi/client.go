package panapi

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panosec/panaudit/internal/panconfig"
)

const (
	apiPathConstant                       = "/api/"
	typeParameterNameConstant             = "type"
	actionParameterNameConstant           = "action"
	categoryParameterNameConstant         = "category"
	keyParameterNameConstant              = "key"
	xpathParameterNameConstant            = "xpath"
	elementParameterNameConstant          = "element"
	commandParameterNameConstant          = "cmd"
	targetParameterNameConstant           = "target"
	exportTypeValueConstant               = "export"
	configTypeValueConstant               = "config"
	operationTypeValueConstant            = "op"
	configurationCategoryValueConstant    = "configuration"
	editActionValueConstant               = "edit"
	successStatusValueConstant            = "success"
	deviceGroupsCommandConstant           = "<show><devicegroups/></show>"
	connectedDevicesCommandConstant       = "<show><devices><connected/></devices></show>"
	validatePendingCommandConstant        = "<validate><full/></validate>"
	interfaceCommandTemplateConstant      = "<test><routing><fib-lookup><virtual-router>default</virtual-router><ip>%s</ip></fib-lookup></routing></test>"
	zoneCommandTemplateConstant           = "<show><interface>%s</interface></show>"
	sharedXPathPrefixConstant             = "/config/shared"
	deviceGroupXPathTemplateConstant      = "/config/devices/entry[@name='localhost.localdomain']/device-group/entry[@name='%s']"
	entryXPathSuffixTemplateConstant      = "/%s/entry[@name='%s']"
	endpointRequiredMessageConstant       = "management endpoint not configured"
	credentialRequiredMessageConstant     = "management credential not configured"
	unsupportedCategoryTemplateConstant   = "unsupported category %q for %s update"
	requestBuildErrorTemplateConstant     = "unable to build %s request: %w"
	requestExecuteErrorTemplateConstant   = "%s request failed: %w"
	responseReadErrorTemplateConstant     = "unable to read %s response: %w"
	responseDecodeErrorTemplateConstant   = "unable to decode %s response: %w"
	mutationDispatchedMessageConstant     = "mutation dispatched"
	validationRequestedMessageConstant    = "pending-change validation requested"
	logFieldOperationConstant             = "operation"
	logFieldRequestIdentifierConstant     = "request_id"
	logFieldScopeConstant                 = "scope"
	logFieldCategoryConstant              = "category"
	logFieldEntryNameConstant             = "entry_name"
	exportOperationNameConstant           = "export-configuration"
	topologyOperationNameConstant         = "scope-topology"
	activeDevicesOperationNameConstant    = "active-devices"
	updateObjectOperationNameConstant     = "update-object"
	updatePolicyOperationNameConstant     = "update-policy"
	validatePendingOperationNameConstant  = "validate-pending-changes"
	resolveInterfaceOperationNameConstant = "resolve-interface"
	resolveZoneOperationNameConstant      = "resolve-zone"
)

// Sentinel construction errors.
var (
	ErrEndpointRequired   = errors.New(endpointRequiredMessageConstant)
	ErrCredentialRequired = errors.New(credentialRequiredMessageConstant)
)

// EntryPayload carries one rewritten configuration element for an update call.
type EntryPayload struct {
	Name    string
	Element string
}

// Client is the minimal management-API surface the analyzer depends on.
type Client interface {
	ExportConfiguration(executionContext context.Context) ([]byte, error)
	ScopeTopology(executionContext context.Context) (map[string][]string, error)
	ActiveLeafNodes(executionContext context.Context) ([]string, error)
	UpdateObject(executionContext context.Context, payload EntryPayload, category panconfig.Category, scopeName string) error
	UpdatePolicy(executionContext context.Context, payload EntryPayload, category panconfig.Category, scopeName string) error
	ValidatePendingChanges(executionContext context.Context) error
	ResolveInterface(executionContext context.Context, nodeName string, address string) (string, error)
	ResolveZone(executionContext context.Context, nodeName string, interfaceName string) (string, error)
}

// APIError reports a request the management plane answered with a non-success
// status.
type APIError struct {
	Operation string
	Status    string
	Message   string
}

// Error renders the failed operation and the management plane's explanation.
func (apiError APIError) Error() string {
	if len(apiError.Message) > 0 {
		return fmt.Sprintf("%s failed with status %q: %s", apiError.Operation, apiError.Status, apiError.Message)
	}
	return fmt.Sprintf("%s failed with status %q", apiError.Operation, apiError.Status)
}

// HTTPClient implements Client over the XML management API.
type HTTPClient struct {
	endpoint   string
	credential string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient constructs a client for the given management endpoint and
// credential. A nil logger degrades to a no-op logger.
func NewHTTPClient(endpoint string, credential string, logger *zap.Logger) (*HTTPClient, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if len(trimmedEndpoint) == 0 {
		return nil, ErrEndpointRequired
	}
	trimmedCredential := strings.TrimSpace(credential)
	if len(trimmedCredential) == 0 {
		return nil, ErrCredentialRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		endpoint:   trimmedEndpoint,
		credential: trimmedCredential,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

type responseEnvelope struct {
	XMLName xml.Name       `xml:"response"`
	Status  string         `xml:"status,attr"`
	Message string         `xml:"msg"`
	Result  responseResult `xml:"result"`
}

type responseResult struct {
	Inner []byte `xml:",innerxml"`
}

type deviceGroupsResult struct {
	DeviceGroups []struct {
		Name    string `xml:"name,attr"`
		Devices []struct {
			Serial string `xml:"serial"`
		} `xml:"devices>entry"`
	} `xml:"devicegroups>entry"`
}

type connectedDevicesResult struct {
	Devices []struct {
		Serial string `xml:"serial"`
	} `xml:"devices>entry"`
}

type interfaceLookupResult struct {
	Interface string `xml:"interface"`
}

type zoneLookupResult struct {
	Zone string `xml:"ifnet>zone"`
}

// ExportConfiguration pulls the full configuration export.
func (client *HTTPClient) ExportConfiguration(executionContext context.Context) ([]byte, error) {
	parameters := url.Values{}
	parameters.Set(typeParameterNameConstant, exportTypeValueConstant)
	parameters.Set(categoryParameterNameConstant, configurationCategoryValueConstant)

	return client.performRequest(executionContext, exportOperationNameConstant, parameters)
}

// ScopeTopology returns the device-group to member-device relation.
func (client *HTTPClient) ScopeTopology(executionContext context.Context) (map[string][]string, error) {
	resultBytes, requestError := client.performOperation(executionContext, topologyOperationNameConstant, deviceGroupsCommandConstant, "")
	if requestError != nil {
		return nil, requestError
	}

	var decodedResult deviceGroupsResult
	if decodeError := xml.Unmarshal(wrapResult(resultBytes), &decodedResult); decodeError != nil {
		return nil, fmt.Errorf(responseDecodeErrorTemplateConstant, topologyOperationNameConstant, decodeError)
	}

	topology := map[string][]string{}
	for _, deviceGroup := range decodedResult.DeviceGroups {
		memberDevices := make([]string, 0, len(deviceGroup.Devices))
		for _, device := range deviceGroup.Devices {
			trimmedSerial := strings.TrimSpace(device.Serial)
			if len(trimmedSerial) > 0 {
				memberDevices = append(memberDevices, trimmedSerial)
			}
		}
		topology[deviceGroup.Name] = memberDevices
	}
	return topology, nil
}

// ActiveLeafNodes lists the enforcement nodes currently connected to the
// management plane.
func (client *HTTPClient) ActiveLeafNodes(executionContext context.Context) ([]string, error) {
	resultBytes, requestError := client.performOperation(executionContext, activeDevicesOperationNameConstant, connectedDevicesCommandConstant, "")
	if requestError != nil {
		return nil, requestError
	}

	var decodedResult connectedDevicesResult
	if decodeError := xml.Unmarshal(wrapResult(resultBytes), &decodedResult); decodeError != nil {
		return nil, fmt.Errorf(responseDecodeErrorTemplateConstant, activeDevicesOperationNameConstant, decodeError)
	}

	activeNodes := make([]string, 0, len(decodedResult.Devices))
	for _, device := range decodedResult.Devices {
		trimmedSerial := strings.TrimSpace(device.Serial)
		if len(trimmedSerial) > 0 {
			activeNodes = append(activeNodes, trimmedSerial)
		}
	}
	return activeNodes, nil
}

// UpdateObject replaces one object definition in the given scope.
func (client *HTTPClient) UpdateObject(executionContext context.Context, payload EntryPayload, category panconfig.Category, scopeName string) error {
	if !category.IsObject() {
		return fmt.Errorf(unsupportedCategoryTemplateConstant, category, "object")
	}
	return client.performUpdate(executionContext, updateObjectOperationNameConstant, payload, category, scopeName)
}

// UpdatePolicy replaces one policy rule definition in the given scope.
func (client *HTTPClient) UpdatePolicy(executionContext context.Context, payload EntryPayload, category panconfig.Category, scopeName string) error {
	if !category.IsPolicy() {
		return fmt.Errorf(unsupportedCategoryTemplateConstant, category, "policy")
	}
	return client.performUpdate(executionContext, updatePolicyOperationNameConstant, payload, category, scopeName)
}

// ValidatePendingChanges asks the management plane to validate the pending
// change set without committing it.
func (client *HTTPClient) ValidatePendingChanges(executionContext context.Context) error {
	requestIdentifier := uuid.NewString()
	_, requestError := client.performOperation(executionContext, validatePendingOperationNameConstant, validatePendingCommandConstant, "")
	if requestError != nil {
		return requestError
	}
	client.logger.Info(
		validationRequestedMessageConstant,
		zap.String(logFieldOperationConstant, validatePendingOperationNameConstant),
		zap.String(logFieldRequestIdentifierConstant, requestIdentifier),
	)
	return nil
}

// ResolveInterface asks an enforcement node which interface routes the address.
func (client *HTTPClient) ResolveInterface(executionContext context.Context, nodeName string, address string) (string, error) {
	command := fmt.Sprintf(interfaceCommandTemplateConstant, address)
	resultBytes, requestError := client.performOperation(executionContext, resolveInterfaceOperationNameConstant, command, nodeName)
	if requestError != nil {
		return "", requestError
	}

	var decodedResult interfaceLookupResult
	if decodeError := xml.Unmarshal(wrapResult(resultBytes), &decodedResult); decodeError != nil {
		return "", fmt.Errorf(responseDecodeErrorTemplateConstant, resolveInterfaceOperationNameConstant, decodeError)
	}
	return strings.TrimSpace(decodedResult.Interface), nil
}

// ResolveZone asks an enforcement node which zone an interface belongs to.
func (client *HTTPClient) ResolveZone(executionContext context.Context, nodeName string, interfaceName string) (string, error) {
	command := fmt.Sprintf(zoneCommandTemplateConstant, interfaceName)
	resultBytes, requestError := client.performOperation(executionContext, resolveZoneOperationNameConstant, command, nodeName)
	if requestError != nil {
		return "", requestError
	}

	var decodedResult zoneLookupResult
	if decodeError := xml.Unmarshal(wrapResult(resultBytes), &decodedResult); decodeError != nil {
		return "", fmt.Errorf(responseDecodeErrorTemplateConstant, resolveZoneOperationNameConstant, decodeError)
	}
	return strings.TrimSpace(decodedResult.Zone), nil
}

func (client *HTTPClient) performUpdate(executionContext context.Context, operationName string, payload EntryPayload, category panconfig.Category, scopeName string) error {
	requestIdentifier := uuid.NewString()

	parameters := url.Values{}
	parameters.Set(typeParameterNameConstant, configTypeValueConstant)
	parameters.Set(actionParameterNameConstant, editActionValueConstant)
	parameters.Set(xpathParameterNameConstant, entryXPath(category, scopeName, payload.Name))
	parameters.Set(elementParameterNameConstant, payload.Element)

	if _, requestError := client.performRequest(executionContext, operationName, parameters); requestError != nil {
		return requestError
	}

	client.logger.Info(
		mutationDispatchedMessageConstant,
		zap.String(logFieldOperationConstant, operationName),
		zap.String(logFieldRequestIdentifierConstant, requestIdentifier),
		zap.String(logFieldScopeConstant, scopeName),
		zap.String(logFieldCategoryConstant, string(category)),
		zap.String(logFieldEntryNameConstant, payload.Name),
	)
	return nil
}

func (client *HTTPClient) performOperation(executionContext context.Context, operationName string, command string, targetNode string) ([]byte, error) {
	parameters := url.Values{}
	parameters.Set(typeParameterNameConstant, operationTypeValueConstant)
	parameters.Set(commandParameterNameConstant, command)
	if len(strings.TrimSpace(targetNode)) > 0 {
		parameters.Set(targetParameterNameConstant, targetNode)
	}
	return client.performRequest(executionContext, operationName, parameters)
}

func (client *HTTPClient) performRequest(executionContext context.Context, operationName string, parameters url.Values) ([]byte, error) {
	parameters.Set(keyParameterNameConstant, client.credential)

	requestURL := url.URL{
		Scheme:   "https",
		Host:     client.endpoint,
		Path:     apiPathConstant,
		RawQuery: parameters.Encode(),
	}

	request, requestBuildError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL.String(), nil)
	if requestBuildError != nil {
		return nil, fmt.Errorf(requestBuildErrorTemplateConstant, operationName, requestBuildError)
	}

	response, executeError := client.httpClient.Do(request)
	if executeError != nil {
		return nil, fmt.Errorf(requestExecuteErrorTemplateConstant, operationName, executeError)
	}
	defer response.Body.Close()

	responseBytes, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, fmt.Errorf(responseReadErrorTemplateConstant, operationName, readError)
	}

	var envelope responseEnvelope
	if decodeError := xml.Unmarshal(responseBytes, &envelope); decodeError != nil {
		// Configuration exports are returned as the raw document, not wrapped
		// in a response envelope.
		if operationName == exportOperationNameConstant {
			return responseBytes, nil
		}
		return nil, fmt.Errorf(responseDecodeErrorTemplateConstant, operationName, decodeError)
	}

	if envelope.XMLName.Local != "response" {
		return responseBytes, nil
	}

	if !strings.EqualFold(envelope.Status, successStatusValueConstant) {
		return nil, APIError{Operation: operationName, Status: envelope.Status, Message: strings.TrimSpace(envelope.Message)}
	}

	if operationName == exportOperationNameConstant {
		return responseBytes, nil
	}

	return envelope.Result.Inner, nil
}

func entryXPath(category panconfig.Category, scopeName string, entryName string) string {
	scopePrefix := sharedXPathPrefixConstant
	if scopeName != panconfig.SharedScopeName {
		scopePrefix = fmt.Sprintf(deviceGroupXPathTemplateConstant, scopeName)
	}
	return scopePrefix + fmt.Sprintf(entryXPathSuffixTemplateConstant, categoryXPathSegment(category), entryName)
}

func categoryXPathSegment(category panconfig.Category) string {
	switch category {
	case panconfig.CategoryAddresses:
		return "address"
	case panconfig.CategoryAddressGroups:
		return "address-group"
	case panconfig.CategoryServices:
		return "service"
	case panconfig.CategoryServiceGroups:
		return "service-group"
	case panconfig.CategorySecurityPreRules:
		return "pre-rulebase/security/rules"
	case panconfig.CategorySecurityPostRules:
		return "post-rulebase/security/rules"
	case panconfig.CategoryNATPreRules:
		return "pre-rulebase/nat/rules"
	case panconfig.CategoryNATPostRules:
		return "post-rulebase/nat/rules"
	default:
		return string(category)
	}
}

// wrapResult re-wraps a result payload so nested structs can unmarshal from a
// stable root element.
func wrapResult(resultInner []byte) []byte {
	return []byte("<result>" + string(resultInner) + "</result>")
}
