// Package requestid attaches a correlation identifier to every incoming HTTP
// request so log records produced while serving it can be tied together.
//
// Middleware reuses a valid client-supplied "X-Request-ID" header or generates
// a fresh UUIDv4, stores the value in the request context, and echoes it back
// in the response. FromContext retrieves the value anywhere downstream, and
// LoggerExtractor plugs it into the structured logging pipeline as a
// request_id attribute.
//
// Invalid or oversized client-supplied IDs are silently replaced; the package
// never returns errors.
package requestid
