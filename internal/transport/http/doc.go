// Package http contains the HTTP handlers: the public license endpoints
// (validate, activate, check), the admin endpoints (generate, stats), the
// HTML landing page, and health. Handlers translate wire requests into
// engine calls and engine results back into JSON; they hold no license
// logic of their own.
package http
