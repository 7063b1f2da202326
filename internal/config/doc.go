// Package config manages client connection settings stored at
// ~/.enmasse/config.yaml, overridable through the ZATO_* environment:
// the server URL, credentials, cluster id and invocation timeout.
package config
