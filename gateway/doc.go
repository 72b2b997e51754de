// Package gateway is the routing proxy every agent descriptor endpoint points
// at. It maps an agent name to the agent's internal URL and forwards the A2A
// request body unchanged.
package gateway
