// Package requestid tags every HTTP request with a correlation id.
//
// Middleware accepts a client-supplied X-Request-ID when it is short and
// made of [a-zA-Z0-9_-]; anything else is replaced by a fresh UUID. The id
// is stored in the request context, echoed in the response header and picked
// up by the logger through LogExtractor.
package requestid
