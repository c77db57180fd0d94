// Package manifest edits package.json files while preserving their key order.
package manifest
