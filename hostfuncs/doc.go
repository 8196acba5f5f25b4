// Package hostfuncs provides the host side of the guest capabilities: named
// byte handlers, middleware, and a reference HTTP bundle.
// It has no wasm runtime dependency; package host binds a registry to a
// wazero module.
//
// A handler receives the encoded payload envelope the guest staged and
// returns the response body. Errors are reported to the guest as status
// words, so handlers attach a status.Kind with status.Wrap; errors that
// carry none are reported as status.CallFailed.
package hostfuncs
