// Package app wires configuration, telemetry, templates, sessions and the
// HTTP handlers into a runnable Application.
//
// New builds every component from a config.Config and the default assets;
// directories named in the configuration replace the embedded templates or
// static files. Run serves until its context is cancelled, running the
// flash janitor and, in reload mode, the template watcher and live-reload
// hub alongside the server in one errgroup. Errors are returned to the
// caller; the package never exits the process.
package app
