package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	configurationLoadErrorTemplateConstant    = "failed to load workflow configuration: %w"
	configurationParseErrorTemplateConstant   = "failed to parse workflow configuration: %w"
	configurationPathRequiredMessageConstant  = "workflow configuration path must be provided"
	configurationEmptyStepsMessageConstant    = "workflow configuration must define at least one step"
	configurationCheckMissingTemplateConstant = "workflow step %d missing check identifier"
)

var (
	// ErrConfigurationPathRequired indicates LoadConfiguration was called without a file path.
	ErrConfigurationPathRequired = errors.New(configurationPathRequiredMessageConstant)
	// ErrEmptyWorkflow indicates a workflow file without steps.
	ErrEmptyWorkflow = errors.New(configurationEmptyStepsMessageConstant)
)

// Configuration describes the ordered workflow steps loaded from YAML.
type Configuration struct {
	Steps []StepConfiguration `yaml:"steps" json:"steps"`
}

// StepConfiguration names the check executed by a step.
type StepConfiguration struct {
	Check string `yaml:"check" json:"check"`
}

// NewConfiguration builds a workflow running the checks in order.
func NewConfiguration(checkIdentifiers ...string) Configuration {
	steps := make([]StepConfiguration, 0, len(checkIdentifiers))
	for _, checkIdentifier := range checkIdentifiers {
		steps = append(steps, StepConfiguration{Check: checkIdentifier})
	}
	return Configuration{Steps: steps}
}

// CheckIdentifiers returns the step check identifiers in order.
func (configuration Configuration) CheckIdentifiers() []string {
	identifiers := make([]string, 0, len(configuration.Steps))
	for _, step := range configuration.Steps {
		identifiers = append(identifiers, step.Check)
	}
	return identifiers
}

// LoadConfiguration reads the workflow definition from disk and performs basic validation.
// The steps may sit at the top level or under a `workflow` key.
func LoadConfiguration(fileSystem afero.Fs, filePath string) (Configuration, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Configuration{}, ErrConfigurationPathRequired
	}

	contentBytes, readError := afero.ReadFile(fileSystem, trimmedPath)
	if readError != nil {
		return Configuration{}, fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
	}
	return ParseConfiguration(contentBytes)
}

// ParseConfiguration decodes and validates a YAML workflow definition.
func ParseConfiguration(contentBytes []byte) (Configuration, error) {
	var configuration Configuration
	if unmarshalError := yaml.Unmarshal(contentBytes, &configuration); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, unmarshalError)
	}
	if len(configuration.Steps) == 0 {
		var wrapper struct {
			Workflow Configuration `yaml:"workflow" json:"workflow"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil {
			configuration = wrapper.Workflow
		}
	}

	if len(configuration.Steps) == 0 {
		return Configuration{}, ErrEmptyWorkflow
	}
	for stepIndex := range configuration.Steps {
		trimmedCheck := strings.TrimSpace(configuration.Steps[stepIndex].Check)
		if len(trimmedCheck) == 0 {
			return Configuration{}, fmt.Errorf(configurationCheckMissingTemplateConstant, stepIndex+1)
		}
		configuration.Steps[stepIndex].Check = trimmedCheck
	}
	return configuration, nil
}
