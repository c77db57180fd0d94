package discovery

import (
	"path/filepath"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mlefree/mle-best-practices/internal/status"
)

// Project is a directory that holds a status file.
type Project struct {
	Name       string
	Path       string
	StatusPath string
}

// NewProject derives the project name and status path from its directory.
func NewProject(projectPath string) Project {
	return Project{
		Name:       filepath.Base(projectPath),
		Path:       projectPath,
		StatusPath: filepath.Join(projectPath, status.FileName),
	}
}

// NameComparator orders strings with English collation rules.
type NameComparator struct {
	collator *collate.Collator
}

// NewNameComparator constructs a comparator for project names.
func NewNameComparator() *NameComparator {
	return &NameComparator{collator: collate.New(language.English)}
}

// Compare returns a negative value when first sorts before second, zero when equal and a positive value otherwise.
func (comparator *NameComparator) Compare(first string, second string) int {
	return comparator.collator.CompareString(first, second)
}

// CompareProjects orders projects by name and breaks ties by path.
func (comparator *NameComparator) CompareProjects(first Project, second Project) int {
	if nameOrder := comparator.Compare(first.Name, second.Name); nameOrder != 0 {
		return nameOrder
	}
	return comparator.Compare(first.Path, second.Path)
}
