// Package report renders check results as markdown status documents and writes them to disk.
package report
