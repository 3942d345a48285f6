/*
Package session coordinates access to stored pages.

A page submitted from several places at once (two CLI invocations, two MCP
requests) must be loaded, updated and saved as one step, or one submission's
effects are lost. Manager provides that step with per-page locks, optionally
backed by a distributed locker for multi-process deployments.
*/
package session
