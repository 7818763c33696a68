// Package connectors provides adapters for the external folder store.
// Each connector implements the driven.FolderStore port for a specific
// provider; Google Drive is the production store.
package connectors
