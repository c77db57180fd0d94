package status

import (
	"strings"

	"github.com/mlefree/mle-best-practices/internal/jsondoc"
)

const (
	// FileName is the marker file that identifies a project.
	FileName = "bpstatus.json"
	// TimestampLayout formats completion timestamps in local time.
	TimestampLayout = "2006-01-02 15:04"

	// MemoryBankStatusKey marks projects that opted into the rules document.
	MemoryBankStatusKey = ".memory-bank"

	// ProjectTypeReference marks the project holding the canonical templates.
	ProjectTypeReference = "reference"
	// ProjectTypeApp marks deployable applications.
	ProjectTypeApp = "app"
	// ProjectTypePackage marks published libraries.
	ProjectTypePackage = "package"
	// ProjectTypeStandalone marks projects without release branches.
	ProjectTypeStandalone = "standalone"

	versionKeyConstant     = "version"
	typeKeyConstant        = "type"
	statusKeyConstant      = "status"
	excludeKeyConstant     = "exclude"
	wildcardSuffixConstant = "*"
	wildcardPrefixConstant = "*"
)

// Record is the decoded content of a project status file.
type Record struct {
	Version string
	Type    string
	Status  map[string]string
	Exclude []string
}

// Timestamp returns the completion timestamp recorded for the key.
func (record Record) Timestamp(key string) (string, bool) {
	if record.Status == nil {
		return "", false
	}
	timestamp, present := record.Status[key]
	return timestamp, present
}

// IsExcluded reports whether any exclusion rule of the record matches the check identifier.
// Rules match exactly, as a prefix when ending with "*" or as a suffix when starting with "*".
func IsExcluded(record Record, checkIdentifier string) bool {
	for _, rule := range record.Exclude {
		if rule == checkIdentifier {
			return true
		}
		if strings.HasSuffix(rule, wildcardSuffixConstant) {
			if strings.HasPrefix(checkIdentifier, strings.TrimSuffix(rule, wildcardSuffixConstant)) {
				return true
			}
			continue
		}
		if strings.HasPrefix(rule, wildcardPrefixConstant) && strings.HasSuffix(checkIdentifier, strings.TrimPrefix(rule, wildcardPrefixConstant)) {
			return true
		}
	}
	return false
}

func decodeRecord(document *jsondoc.Object) Record {
	record := Record{Status: map[string]string{}}
	if versionValue, present := document.String(versionKeyConstant); present {
		record.Version = versionValue
	}
	if typeValue, present := document.String(typeKeyConstant); present {
		record.Type = typeValue
	}
	if statusObject, present := document.Object(statusKeyConstant); present {
		for _, statusKey := range statusObject.Keys() {
			if timestamp, isString := statusObject.String(statusKey); isString {
				record.Status[statusKey] = timestamp
			}
		}
	}
	if excludeValue, present := document.Get(excludeKeyConstant); present {
		if excludeRules, isArray := excludeValue.([]any); isArray {
			for _, excludeRule := range excludeRules {
				if ruleText, isString := excludeRule.(string); isString {
					record.Exclude = append(record.Exclude, ruleText)
				}
			}
		}
	}
	return record
}
