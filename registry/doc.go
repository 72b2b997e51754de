// Package registry loads agent descriptors from a catalog, indexes their
// searchable text in an embedding.Index and resolves free-form task
// descriptions to the best matching descriptor.
//
// Every descriptor endpoint is rewritten at load time to go through the
// gateway (see ProxyEndpoint), so callers never need the network location of a
// specialist. The package also exposes the discovery protocol: Server answers
// POST /find_agent and Client calls it with a bounded timeout.
package registry
