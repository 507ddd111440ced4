// Package http implements the site's HTTP handlers. Handlers stay thin:
// they decode the request, call a service or the renderer, and write the
// response.
//
//   - PageHandler serves the seven content pages and the HTML 404 and 405
//     answers. Each page render consumes the session's pending flash.
//   - FormHandler decodes the subscribe and contact posts, hands them to
//     services.FormService and redirects with 303 See Other.
//   - HealthHandler answers the JSON health, readiness, liveness and
//     version endpoints.
//
// API paths under /api answer errors with RFC 7807 problem documents.
package http
