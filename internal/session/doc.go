// Package session runs timed multi-round typing practice.
//
// An Engine moves through idle, waiting, running, break and finished. The
// round countdown starts on the first input of a round, not when the round is
// prepared. When it elapses the typed words are scored against the words they
// were meant to match, the result is recorded, and a fixed break runs before
// the next round. After the last round the best result is reported.
//
// Timer callbacks carry the epoch they were scheduled in. Any reset or round
// transition bumps the epoch, so a callback that fires late is dropped.
package session
