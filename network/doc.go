// Package network moves Ben-Or messages between nodes.
//
// Memory is a simulated in-process network that can lose messages and cut nodes off.
// The gRPC transport exposes a node as the benor.Node service: Server serves an engine,
// Client calls a single node and Sender broadcasts through a set of clients.
// Messages and node state travel as google.protobuf.Struct values.
package network
