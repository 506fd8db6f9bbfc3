// Package gateway wires the club-relay components together and owns the
// process lifecycle: it builds the store, duplicate guard, relay and
// router from configuration, serves the Telegram webhook over plain TCP
// or a tsnet/Funnel listener, runs the periodic draft sweep, and shuts
// everything down gracefully.
package gateway
