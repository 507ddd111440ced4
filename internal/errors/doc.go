// Package errors defines the error taxonomy of the site and the handlers
// that turn errors into responses: RFC 7807 problem documents for the JSON
// API, and plain 500 bodies for failed HTML renders.
package errors
