package analyze

import "strings"

// Configuration keys relative to the analyzer configuration prefix.
const (
	endpointConfigurationKeyConstant         = "endpoint"
	apiKeyFileConfigurationKeyConstant       = "api_key_file"
	ignoredPrefixesConfigurationKeyConstant  = "ignored_hostname_prefixes"
	outputDirectoryConfigurationKeyConstant  = "output_directory"
	configurationKeySeparatorConstant        = "."
)

// CommandConfiguration captures persistent settings for the analyzer commands.
type CommandConfiguration struct {
	Endpoint                string   `mapstructure:"endpoint"`
	APIKeyFile              string   `mapstructure:"api_key_file"`
	IgnoredHostnamePrefixes []string `mapstructure:"ignored_hostname_prefixes"`
	OutputDirectory         string   `mapstructure:"output_directory"`
}

// DefaultCommandConfiguration returns baseline configuration values.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// DefaultConfigurationValues exposes defaults keyed for the configuration
// loader under the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	prefixedKey := func(configurationKey string) string {
		if len(configurationPrefix) == 0 {
			return configurationKey
		}
		return configurationPrefix + configurationKeySeparatorConstant + configurationKey
	}

	return map[string]any{
		prefixedKey(endpointConfigurationKeyConstant):        "",
		prefixedKey(apiKeyFileConfigurationKeyConstant):      "",
		prefixedKey(ignoredPrefixesConfigurationKeyConstant): []string{},
		prefixedKey(outputDirectoryConfigurationKeyConstant): "",
	}
}

// sanitize trims whitespace from configured values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Endpoint = strings.TrimSpace(configuration.Endpoint)
	sanitized.APIKeyFile = strings.TrimSpace(configuration.APIKeyFile)
	sanitized.OutputDirectory = strings.TrimSpace(configuration.OutputDirectory)

	sanitizedPrefixes := make([]string, 0, len(configuration.IgnoredHostnamePrefixes))
	for _, rawPrefix := range configuration.IgnoredHostnamePrefixes {
		trimmedPrefix := strings.TrimSpace(rawPrefix)
		if len(trimmedPrefix) == 0 {
			continue
		}
		sanitizedPrefixes = append(sanitizedPrefixes, trimmedPrefix)
	}
	sanitized.IgnoredHostnamePrefixes = sanitizedPrefixes

	return sanitized
}
