// Package protocol owns the summarizer daemon wire contract.
//
// Ownership boundary:
// - request encode (client) and decode (daemon)
// - response header encode (daemon) and incremental decode (client)
// - protocol constants and status classification
//
// All multi-byte fields are big-endian. Byte-level cursor handling lives in
// the stream subpackage; whole-message io.Reader/io.Writer framing lives in
// the frame subpackage.
package protocol
