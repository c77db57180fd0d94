package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	listSeparatorConstant                           = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	environmentFileReadErrorTemplateConstant        = "failed to read environment file %s: %w"
	environmentBindingErrorTemplateConstant         = "failed to bind environment variable %s: %w"
)

// EnvironmentBinding maps an unprefixed environment variable onto a configuration key.
type EnvironmentBinding struct {
	ConfigurationKey    string
	EnvironmentVariable string
}

// ConfigurationLoader wraps Viper to load structured configuration files and environment overrides.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	environmentKeyReplacer    *strings.Replacer
	embeddedConfiguration     []byte
	embeddedConfigurationType string
	environmentBindings       []EnvironmentBinding
	environmentFilePaths      []string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that searches known paths and respects an environment prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	duplicatedSearchPaths := make([]string, len(searchPaths))
	copy(duplicatedSearchPaths, searchPaths)

	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            duplicatedSearchPaths,
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
	}
}

// SetEmbeddedConfiguration stores embedded configuration data merged before user-provided configuration files.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}

	loader.embeddedConfiguration = nil
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)

	if len(configurationData) == 0 {
		return
	}

	duplicatedData := make([]byte, len(configurationData))
	copy(duplicatedData, configurationData)
	loader.embeddedConfiguration = duplicatedData
}

// BindEnvironmentVariable reads configurationKey from environmentVariable without the loader prefix.
func (loader *ConfigurationLoader) BindEnvironmentVariable(configurationKey string, environmentVariable string) {
	if loader == nil {
		return
	}
	loader.environmentBindings = append(loader.environmentBindings, EnvironmentBinding{
		ConfigurationKey:    configurationKey,
		EnvironmentVariable: environmentVariable,
	})
}

// SetEnvironmentFiles registers dotenv files consulted for bound variables absent from the process environment.
// Earlier files take precedence over later ones and missing files are ignored.
func (loader *ConfigurationLoader) SetEnvironmentFiles(environmentFilePaths ...string) {
	if loader == nil {
		return
	}
	loader.environmentFilePaths = append([]string{}, environmentFilePaths...)
}

// LoadConfiguration populates targetConfiguration using configuration files, defaults, and environment variables.
// Precedence from lowest to highest: defaults, dotenv files, embedded configuration, configuration file, environment.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	if len(loader.embeddedConfiguration) > 0 {
		configurationType := loader.configurationType
		if len(loader.embeddedConfigurationType) > 0 {
			configurationType = loader.embeddedConfigurationType
		}

		viperInstance.SetConfigType(configurationType)
		mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration))
		if mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
		}

		viperInstance.SetConfigType(loader.configurationType)
	}

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	if loader.environmentKeyReplacer != nil {
		viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	}
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if applyError := loader.applyEnvironmentFiles(viperInstance); applyError != nil {
		return LoadedConfiguration{}, applyError
	}

	for _, binding := range loader.environmentBindings {
		if bindError := viperInstance.BindEnv(binding.ConfigurationKey, binding.EnvironmentVariable); bindError != nil {
			return LoadedConfiguration{}, fmt.Errorf(environmentBindingErrorTemplateConstant, binding.EnvironmentVariable, bindError)
		}
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	readError := viperInstance.MergeInConfig()
	if readError != nil {
		if _, isNotFound := readError.(viper.ConfigFileNotFoundError); !isNotFound {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	unmarshalError := viperInstance.Unmarshal(targetConfiguration, viper.DecodeHook(ConfigurationDecodeHook()))
	if unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	loadedConfiguration := LoadedConfiguration{
		ConfigFileUsed: viperInstance.ConfigFileUsed(),
	}

	return loadedConfiguration, nil
}

// ConfigurationDecodeHook converts comma-separated strings into slices and duration strings into time.Duration.
func ConfigurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listSeparatorConstant),
	)
}

// applyEnvironmentFiles seeds bound keys from dotenv files so the real environment still wins.
func (loader *ConfigurationLoader) applyEnvironmentFiles(viperInstance *viper.Viper) error {
	if len(loader.environmentBindings) == 0 {
		return nil
	}

	for fileIndex := len(loader.environmentFilePaths) - 1; fileIndex >= 0; fileIndex-- {
		environmentFilePath := loader.environmentFilePaths[fileIndex]
		environmentValues, readError := gotenv.Read(environmentFilePath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf(environmentFileReadErrorTemplateConstant, environmentFilePath, readError)
		}
		for _, binding := range loader.environmentBindings {
			if value, present := environmentValues[binding.EnvironmentVariable]; present && len(strings.TrimSpace(value)) > 0 {
				viperInstance.SetDefault(binding.ConfigurationKey, value)
			}
		}
	}
	return nil
}
