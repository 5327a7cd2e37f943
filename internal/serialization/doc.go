// Package serialization provides the native file format for frozen modules
// and trained parameter buffers.
//
// Both kinds of file share one framing:
//
//	Format Structure:
//	  [4 bytes: Magic "AXON"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Payload kind (uint32 LE)]
//	  [Payload: protobuf wire encoding]
//	  [32 bytes: SHA-256 of everything above]
//
// Payloads are plain protobuf messages written with protowire, so any
// protobuf decoder can read them given the field numbers in format.go.
// Unknown fields are skipped on read.
//
// Example usage:
//
//	if err := serialization.SaveModule("net.axm", grad); err != nil {
//	    log.Fatal(err)
//	}
//	m, err := serialization.LoadModule("net.axm")
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
