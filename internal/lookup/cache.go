package lookup

import (
	"context"
	"fmt"
	"net"

	"github.com/panosec/panaudit/internal/panapi"
)

const (
	hostnameKeyTemplateConstant  = "hostname|%s"
	interfaceKeyTemplateConstant = "interface|%s|%s"
	zoneKeyTemplateConstant      = "zone|%s|%s"
)

// Resolver performs the uncached external lookups.
type Resolver interface {
	ResolveHostname(executionContext context.Context, hostname string) (string, bool)
	ResolveInterface(executionContext context.Context, nodeName string, address string) (string, error)
	ResolveZone(executionContext context.Context, nodeName string, interfaceName string) (string, error)
}

type cachedAnswer struct {
	value    string
	resolved bool
}

// Cache memoizes resolver answers by key. A key resolved once keeps its
// answer for the cache lifetime; entries are never evicted or overwritten.
type Cache struct {
	resolver Resolver
	answers  map[string]cachedAnswer
}

// NewCache constructs an empty cache around the resolver.
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		answers:  map[string]cachedAnswer{},
	}
}

// ResolveHostname resolves a hostname to an address, memoizing both hits and
// misses. The second return reports whether the hostname resolved.
func (cache *Cache) ResolveHostname(executionContext context.Context, hostname string) (string, bool) {
	cacheKey := fmt.Sprintf(hostnameKeyTemplateConstant, hostname)
	if answer, found := cache.answers[cacheKey]; found {
		return answer.value, answer.resolved
	}

	address, resolved := cache.resolver.ResolveHostname(executionContext, hostname)
	cache.answers[cacheKey] = cachedAnswer{value: address, resolved: resolved}
	return address, resolved
}

// ResolveInterface resolves the interface routing an address on a node.
// Failed lookups are not memoized so a transient failure does not pin a key.
func (cache *Cache) ResolveInterface(executionContext context.Context, nodeName string, address string) (string, error) {
	cacheKey := fmt.Sprintf(interfaceKeyTemplateConstant, nodeName, address)
	if answer, found := cache.answers[cacheKey]; found {
		return answer.value, nil
	}

	interfaceName, resolveError := cache.resolver.ResolveInterface(executionContext, nodeName, address)
	if resolveError != nil {
		return "", resolveError
	}
	cache.answers[cacheKey] = cachedAnswer{value: interfaceName, resolved: true}
	return interfaceName, nil
}

// ResolveZone resolves the zone an interface belongs to on a node.
func (cache *Cache) ResolveZone(executionContext context.Context, nodeName string, interfaceName string) (string, error) {
	cacheKey := fmt.Sprintf(zoneKeyTemplateConstant, nodeName, interfaceName)
	if answer, found := cache.answers[cacheKey]; found {
		return answer.value, nil
	}

	zoneName, resolveError := cache.resolver.ResolveZone(executionContext, nodeName, interfaceName)
	if resolveError != nil {
		return "", resolveError
	}
	cache.answers[cacheKey] = cachedAnswer{value: zoneName, resolved: true}
	return zoneName, nil
}

// NetResolver resolves hostnames through the local DNS stack and delegates
// interface and zone lookups to the management API client.
type NetResolver struct {
	apiClient panapi.Client
}

// NewNetResolver constructs a resolver. The API client may be nil on
// file-sourced runs; interface and zone lookups then report an error.
func NewNetResolver(apiClient panapi.Client) *NetResolver {
	return &NetResolver{apiClient: apiClient}
}

// ResolveHostname resolves via net.LookupHost; any lookup failure is treated
// as a non-resolving hostname.
func (resolver *NetResolver) ResolveHostname(executionContext context.Context, hostname string) (string, bool) {
	addresses, lookupError := net.DefaultResolver.LookupHost(executionContext, hostname)
	if lookupError != nil || len(addresses) == 0 {
		return "", false
	}
	return addresses[0], true
}

// ResolveInterface delegates to the management API client.
func (resolver *NetResolver) ResolveInterface(executionContext context.Context, nodeName string, address string) (string, error) {
	if resolver.apiClient == nil {
		return "", errNoAPIClient
	}
	return resolver.apiClient.ResolveInterface(executionContext, nodeName, address)
}

// ResolveZone delegates to the management API client.
func (resolver *NetResolver) ResolveZone(executionContext context.Context, nodeName string, interfaceName string) (string, error) {
	if resolver.apiClient == nil {
		return "", errNoAPIClient
	}
	return resolver.apiClient.ResolveZone(executionContext, nodeName, interfaceName)
}
