// Package protocol defines the wire format between fsguard and fsguardd.
//
// A request is a single UTF-8 JSON object with no framing around it:
//
//	{"name": "CheckLocalFile", "params": {"file_path": "/tmp/a", "signature": "774066"}}
//
// The server answers every request it can parse with one object:
//
//	{"status": true, "result": [0, 17]}
//	{"status": false, "result": "no_such_file"}
//
// The [Accumulator] implements the server side of the framing: bytes are
// buffered until they parse as one document.
package protocol
