/*
Package domain contains the wire types and error taxonomy of the GUI API protocol.

A client submits a Batch of named Actions in one Request. The server answers with a
Response whose Results correspond positionally to the actions. Each Result carries
HTMLUpdates (DOM patches) and JSCalls (requests to run pre-registered client functions).

# Key Entities

  - Action / Batch: what the client asks the server to do.
  - Result: the effects the server asks the client to apply.
  - HTMLUpdate: a patch addressed by CSS selector. Only HTMLReplace is applied by the client.
  - JSCall: a call into the client's sealed function registry.
  - TransportError / ProtocolError: the only failures that abort a submission.
  - Diagnostic: a per-effect anomaly that was logged and skipped.

This package has no dependencies beyond the standard library.
*/
package domain
