// Package jsondoc models JSON objects whose key order survives a read, modify and write cycle.
package jsondoc
