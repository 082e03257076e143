package store

import "vredis/internal/clientio"

// Msg is one message on the store's inbox, per §4.6's four message
// kinds. The store processes these one at a time in Run, which is what
// gives the whole keyspace its single-threaded semantics without a lock.
type Msg interface{ isStoreMsg() }

// ConnectMsg registers a newly accepted client.
type ConnectMsg struct {
	Client *clientio.Client
}

// ReadyMsg carries one fully assembled request from a client task.
type ReadyMsg struct {
	ID   clientio.ID
	Args [][]byte
}

// DisconnectMsg tears down every subsystem's record of a client.
type DisconnectMsg struct {
	ID clientio.ID
}

// TimeoutMsg fires when a blocking wait's deadline elapses. Gen must
// match the generation the store stamped when it parked the client, or
// the timeout is stale (the client already woke naturally) and ignored.
type TimeoutMsg struct {
	ID  clientio.ID
	Gen uint64
}

func (ConnectMsg) isStoreMsg()    {}
func (ReadyMsg) isStoreMsg()      {}
func (DisconnectMsg) isStoreMsg() {}
func (TimeoutMsg) isStoreMsg()    {}
