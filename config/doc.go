// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Environment variables (IDF_MOBILITE_API_KEY, SELECTED_TOWNS, MAX_WORKERS)
// override file values, matching the service's original deployment surface.
package config
