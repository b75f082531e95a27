// Package server exposes an editing session over HTTP.
//
// The server is a drag source like the scenario runner and the TUI: every
// gesture a client sends is applied to one [pipeline.Env]. The engine is
// single-threaded, so requests are serialized on one lock and a drag's
// search and connect happen atomically within a request.
//
// # Routes
//
//	GET    /healthz                    liveness
//	GET    /metrics                    counter snapshot
//	GET    /blocks                     every block, creation order
//	POST   /blocks                     spawn {"type", "x", "y"}
//	GET    /blocks/{id}                one block
//	PATCH  /blocks/{id}                {"collapsed", "disabled"}
//	DELETE /blocks/{id}?heal=true      dispose
//	POST   /blocks/{id}/probe          preview a drop {"dx", "dy", "heal"}
//	POST   /blocks/{id}/drag           drag and drop {"dx", "dy", "heal"}
//	POST   /blocks/{id}/unplug         {"heal"}
//	PUT    /blocks/{id}/fields/{name}  {"value"}
//	GET    /export/{format}?detailed=  dot, svg or png
//
// Errors are JSON objects {"code", "message"}. Validator rejections are
// 422, unknown blocks 404 and programming errors 500.
package server
