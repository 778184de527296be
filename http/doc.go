// Package http provides a small, composable outbound HTTP client with
// request/response interceptors and default headers.
//
// The client never retries. Failures are classified by ErrorType:
//   - network: transport failures and unreadable bodies
//   - timeout: the request context deadline or the client timeout expired
//   - canceled: the caller canceled the request context
//   - http: a non-2xx response (the Response is returned alongside the error)
//   - interceptor: an interceptor rejected the request or response
//   - validation: the Request itself is invalid
//
// Timeout and canceled errors unwrap to the underlying context error.
package http
