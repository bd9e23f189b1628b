// Package http contains the chi HTTP handlers: upload-and-summarize,
// summary downloads, and health. Handlers stay thin; all aggregation logic
// lives behind the service interfaces.
package http
