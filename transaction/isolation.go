package transaction

// IsolationLevel controls how stale a transaction's reads are allowed to
// be and whether its commit goes through the serializable conflict check.
type IsolationLevel uint

const (
	// IsolationReadUncommitted is accepted for API symmetry with the
	// teacher's isolation levels, but this engine's tuples never expose an
	// uncommitted writer's data to a different transaction, so in practice
	// it behaves like IsolationReadCommitted.
	IsolationReadUncommitted IsolationLevel = iota
	// IsolationReadCommitted takes a fresh read timestamp at the start of
	// every statement... but this engine only takes the read ts at Begin,
	// so it behaves the same as IsolationRepeatableRead. See
	// DESIGN.md for the Open Question this decides.
	IsolationReadCommitted
	// IsolationRepeatableRead reads under one fixed snapshot, taken at
	// Begin, for the transaction's whole lifetime.
	IsolationRepeatableRead
	// IsolationSerializable additionally runs the manager's verify check at
	// commit time, aborting the transaction instead of committing if a
	// transaction that committed after its read timestamp wrote a row it
	// also wrote.
	IsolationSerializable

	// DefaultIsolationLevel is used when no level is explicitly requested.
	DefaultIsolationLevel = IsolationRepeatableRead
)
