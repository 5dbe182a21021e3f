package types

// StateChange is the change of a single world state key. Prev and Existed
// describe the value before the change so the change can be inverted.
type StateChange struct {
	Key     string `msgpack:"k"`
	Prev    []byte `msgpack:"p"`
	Existed bool   `msgpack:"e"`
	Next    []byte `msgpack:"n"`
	// Deleted marks a change that removed Key.
	Deleted bool `msgpack:"d"`
}

// StateDelta holds the changes a transaction applied to world state, in
// application order. Applying the inverse in reverse order restores the
// state that existed before the transaction.
type StateDelta struct {
	TransactionID      Hash `msgpack:"i"`
	DisambiguationHash Hash `msgpack:"a"`
	// Seq orders deltas of a chain by the time they were applied.
	Seq     uint64        `msgpack:"s"`
	Changes []StateChange `msgpack:"c"`
}

// Inverse returns the changes undoing d, in the order they must be applied.
func (d *StateDelta) Inverse() []StateChange {
	inv := make([]StateChange, 0, len(d.Changes))
	for i := len(d.Changes) - 1; i >= 0; i-- {
		c := d.Changes[i]
		inv = append(inv, StateChange{
			Key:     c.Key,
			Prev:    c.Next,
			Existed: !c.Deleted,
			Next:    c.Prev,
			Deleted: !c.Existed,
		})
	}
	return inv
}
