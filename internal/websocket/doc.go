// Package websocket serves the development live-reload channel. Browsers
// open a socket to the hub and reload when a template change is broadcast.
package websocket
