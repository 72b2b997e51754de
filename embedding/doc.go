// Package embedding holds one vector per registered key and answers
// best-match queries by dot-product similarity.
//
// The Index is read-mostly: entries are added while a catalog loads, after
// which concurrent Query calls only take a read lock. Query embeddings are
// memoized in a bounded LRU cache so repeated task descriptions do not hit the
// embedding provider again.
//
// Providers implement Embedder. The openai subpackage wraps the OpenAI
// embeddings API; HashEmbedder is an offline, deterministic fallback.
package embedding
