// Package draft assembles multi-file application drafts. A user in the
// collecting state sends files one message at a time; the assembler
// appends each to a persistent draft, refreshing a 24 hour expiry on
// every accepted file. Submission snapshots the draft elsewhere; this
// package only owns accumulation, the size cap, and expiry.
package draft
