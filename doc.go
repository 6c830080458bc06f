// Package pitfall implements a small HTTP service that demonstrates common
// security and concurrency pitfalls next to their fixes.
//
// The service exposes five independent operations:
//
//   - Login: exact credential match against a read-only user table
//   - ReadFile: path traversal defense for a fixed uploads directory
//   - FindDuplicates: set-based duplicate detection over a random sequence
//   - StartMonitor: a recurring background task that is never stopped (a leak kept on purpose)
//   - Increment: a shared counter serialized through a single-slot lock table
//
// # Key Components
//
//   - Service: owns all process-wide state and wires the components together
//   - UserStore: interface for credential lookup (memory, SQLite, PostgreSQL)
//   - FileStorage: interface for reading files from the base directory
//   - LockTable and Counter: the spin-wait mutual exclusion protocol
//   - MonitorRegistry: append-only list of background task handles
//
// # Example Usage
//
//	svc, err := pitfall.NewService(users, storage, pitfall.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	n, err := svc.Increment(ctx)
//
// See the http package for the REST API and the database packages for
// credential store backends.
package pitfall
