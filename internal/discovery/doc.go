// Package discovery locates projects marked by a bpstatus.json file below configured roots.
package discovery
