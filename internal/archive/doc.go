// Package archive owns the processed-file archive: the durable ledger that
// answers "has this content been processed before?".
//
// The archive is a plain directory. Every file in it carries the digest
// prefix of its content in its name:
//
//	<original-stem>__<tag>_<digest-prefix><original-extension>
//
// e.g. orders_SH0004_1230__sha256_ab93f1c2a3.xlsx. The presence of a name
// with a matching prefix is the sole ground truth for "already processed".
// There is no cache carried across runs and no side ledger; Index rescans
// the directory on every lookup. Any external process that appends files
// with correctly computed names participates in the same contract.
//
// The directory is append-only from this package's point of view: Mover
// adds names and never rewrites or removes an existing one.
package archive
