// Package a2a connects the orchestrators and specialist agents over the
// agent-to-agent protocol, built on the a2a-go SDK: a2aclient carries
// message/send and message/stream calls, a2asrv hosts agents.
//
// Client.Invoke is the call router. It always returns text: connection,
// protocol and agent-reported failures are rendered as messages so a calling
// LLM agent can reason about them. Server hosts an Executor through the
// a2asrv request handler and serves the agent card at the well-known paths.
package a2a
