/*
Package interpret applies the results of a GUI API submission to a page.

Results are processed strictly in order. Within a result, HTML updates are applied
before JS calls. Only the replace-content operation is implemented; other operation
codes and unregistered function names are logged, recorded in the Report and skipped.
Nothing that happens inside Apply aborts the remaining effects.

Server markup is inserted verbatim unless a ContentPolicy says otherwise.
*/
package interpret
