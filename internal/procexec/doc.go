// Package procexec runs external commands and pipes their standard
// streams to and from caller-supplied readers and writers.
//
// Each wired stream is serviced by its own goroutine so a child that fills
// one pipe never blocks progress on the others. Execute waits for the
// process to exit and then joins every pipe goroutine before returning, so
// all output has reached the caller's writers once Execute returns. No
// timeout is applied to either wait.
package procexec
