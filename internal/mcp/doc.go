// Package mcp exposes the kitchen engine over the Model Context Protocol.
//
// Tools map one-to-one onto engine commands plus two read surfaces
// (state_get, event_list). Domain rejections are reported in the tool result
// rather than as protocol errors so a client can distinguish "the kitchen
// said no" from "the call failed".
package mcp
