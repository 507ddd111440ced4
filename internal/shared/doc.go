// Package shared holds helpers used by more than one package. The testutil
// subpackage provides a capturing slog handler and log assertions for tests.
package shared
