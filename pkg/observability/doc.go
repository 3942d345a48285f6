/*
Package observability provides Prometheus metrics for the GUI API client and endpoint.

It counts submissions by outcome, times round trips, tracks in-flight requests and
counts interpreted effects (HTML patches and function calls) by outcome.
*/
package observability
