// Package model defines the provider-agnostic abstraction for the LLM
// completion function used by the specialists, the trade intent resolver
// and the trade-details extractor.
//
// Generate unifies streaming and non-streaming generation behind channels;
// Complete drains them into a single string for callers that only need the
// final answer. Providers (OpenAI, Anthropic) live in subpackages so higher
// layers stay decoupled from vendor SDKs. MockModel serves tests.
package model
