// Package proxy is the client side of the PromptCraft proxy endpoint.
//
// The proxy keeps the generative-AI key on the server; clients send the
// image or prompt to POST /api/generate and optionally authenticate with a
// shared client key in the x-api-key header. Failures come back as
// {"error": ..., "kind": ...} so the client can rebuild the typed error.
package proxy
