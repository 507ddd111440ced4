// Package services holds the site's business rules, kept apart from HTTP
// so they can be tested without a server.
//
// FormService applies the subscribe and contact policies: trim, check the
// required fields, and queue exactly one flash message for the session.
// HealthService answers the health, liveness, readiness and version
// endpoints; components register readiness checks with AddCheck.
package services
