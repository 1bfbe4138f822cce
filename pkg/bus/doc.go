// Package bus is a typed message bus between two execution contexts.
//
// A Catalogue fixes, per operation tag, the Go types of the request and the
// response. Define returns an Op that carries those types, so
//
//	cat := bus.NewCatalogue()
//	ping := bus.Define[struct{}, bool](cat, "ping")
//
//	ch := bus.New(transport, cat)
//	_ = bus.OnRequest(ch, ping, func(ctx context.Context, _ struct{}) (bool, error) { return true, nil })
//	ok, err := bus.Request(ctx, peer, ping, struct{}{})
//
// Request waits for exactly one answer: the handler's response, the
// handler's error (returned unchanged), or the transport's error when nobody
// answered. Broadcast never waits; faults answered to a broadcast go to the
// channel's FaultSink.
//
// The Transport only moves Envelopes and calls back once per Send. Payloads
// travel as JSON and are decoded strictly into the catalogue types on both
// ends.
package bus
