// Package config loads, merges and validates the configuration of the sync
// client and the development server.
//
// Configuration is assembled from several sources; later sources override
// earlier non-zero fields:
//  1. Environment variables (with defaults)
//  2. Command-line flags
//  3. JSON config file
//
// Collections are declared in the JSON file only. The entry points are
// [GetClientConfig] and [GetServerConfig], which return validated views of
// the merged [StructuredConfig].
package config
