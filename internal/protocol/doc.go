// Package protocol owns the TFTP wire contract.
//
// Ownership boundary:
// - packet model (RFC 1350 variants plus the RFC 2347 OACK)
// - encoder and decoder for the byte layout
// - option grammar lives in the option subpackage
//
// Transport, transfer state and option negotiation belong to callers.
package protocol
