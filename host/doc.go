// Package host is the host side of the guest call protocol.
//
// It binds a hostfuncs.HandlerRegistry to a wazero runtime as the "env"
// import module, answers each guest call with a status word, and invokes
// the guest's exported entry points. Every result handed to the guest is a
// body plus a (ptr, cap, len) triple allocated through the guest's own
// "allocate" export; the status word carries the triple's offset.
package host
