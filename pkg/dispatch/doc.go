/*
Package dispatch sends batches of UI actions to the GUI endpoint.

Each Submit is exactly one HTTP POST carrying every action of the batch. The
response must contain one Result per action; anything else is a protocol error
and nothing is applied. Round trips of concurrent submissions overlap freely,
but applying their results is serialized so that effects of two submissions
never interleave.

A client function that submits while results are being applied (for example a
sort binding fired by a patch) has its own results applied before the outer
sequence moves on.
*/
package dispatch
