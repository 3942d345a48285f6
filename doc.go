/*
Package guiapi is a client for server-driven user interfaces.

The server decides what the page looks like. The client reports user intent as
named actions, sends them to a single endpoint in one POST, and applies the
Results that come back: HTML patches addressed by CSS selector and calls to a
small, sealed table of client functions. Action names and page content are
opaque to the client; only the protocol is fixed.

# Protocol

A request carries a batch of actions:

	{"Actions":[{"Name":"itemEdit","Args":3}]}

The response carries exactly one Result per action, in the same order:

	{"Results":[{"HTML":[{"Selector":"#container","Operation":1,"Content":"..."}],
	             "JS":[{"Name":"setURL","Arguments":[null,"Edit","/item/3"]}]}]}

Results are applied strictly in order; within a Result, HTML updates run before
JS calls. Operation 1 (replace content) is the only HTML operation; other codes
and unknown function names are logged and skipped.

# Usage

	client, err := guiapi.New("http://localhost:8080/gui/", `<div id="container"></div>`)
	if err != nil {
		log.Fatal(err)
	}

	out, err := client.Call(ctx, "itemList", nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Report.HTMLApplied)

The lower level packages can be used on their own: pkg/dispatch for the
transport, pkg/interpret for applying results to any document, pkg/registry
for the callable-function table and pkg/adapters/http for serving the
endpoint side.
*/
package guiapi
