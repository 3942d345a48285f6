/*
Package page models the browser state a GUI API client mutates.

A Page bundles the Document (markup addressed by CSS selectors), the History stack
written by pushState-like calls, and the Sorter that binds drag-reorder behavior to
list containers. Snapshots make a page persistable between sessions.
*/
package page
