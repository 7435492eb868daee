// Package cli parses the prefabctl command line into an app.Config.
package cli
