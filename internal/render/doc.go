// Package render executes the site's page templates. Every page is parsed
// together with the base.html layout and any partials, and rendered with
// the global site context merged under the page's own variables. Output is
// buffered, optionally minified, and written only when execution succeeds.
package render
