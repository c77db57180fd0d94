// Package status persists per-project check completion records in bpstatus.json files
// and evaluates the exclusion rules stored alongside them.
package status
