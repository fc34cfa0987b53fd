// Package fingerprint computes content digests for inbound files.
//
// A Digest is the SHA-256 of the raw file bytes and nothing else: the file
// name, its path and its timestamps never take part. Byte-identical content
// always yields the same Digest. Any byte difference yields a different one
// with overwhelming probability.
//
// Digests are opaque. Callers compare them, print them and embed their
// prefixes in archive names, but never parse meaning out of them.
//
// # Prefixes
//
// Archive names carry a short hex prefix instead of the full 64 hex digits.
// A prefix is a probabilistic identity, not an absolute one: with n archived
// files and a prefix of k hex characters the chance of any collision is
// roughly n²/2·16^-k. For k=10 and n=10,000 that is about 4.5e-5. The
// length is a tunable trade-off between collision risk and filename brevity;
// raise it if the archive is expected to grow by orders of magnitude.
package fingerprint
