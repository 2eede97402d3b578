// Package policy implements the gate consulted by every workflow tick.
//
// A Store holds the current Snapshot behind an atomic pointer. The Gate
// reads it on every tick, so a change swapped in by the Reloader takes
// effect on the next tick of each workflow without restarting anything.
package policy
