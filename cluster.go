package maelstrom

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"
)

// Cluster holds the node's own id and the cluster membership. It is set
// exactly once, by the "init" message.
type Cluster struct {
	mu      sync.RWMutex
	self    string
	members []string
	set     mapset.Set[string]
}

// Init records the membership and picks the local id at selfIndex. It fails
// with ErrAlreadyInitialized on every call after the first successful one and
// with ErrUnknownNode if selfIndex is out of range. Failures never mutate
// the cluster.
func (c *Cluster) Init(members []string, selfIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set != nil {
		return ErrAlreadyInitialized
	}
	if selfIndex < 0 || selfIndex >= len(members) {
		return fmt.Errorf("%w: index %d of %d members", ErrUnknownNode, selfIndex, len(members))
	}

	c.members = slices.Clone(members)
	c.self = c.members[selfIndex]
	c.set = mapset.NewThreadUnsafeSet(c.members...)
	return nil
}

// Initialized reports whether Init has succeeded.
func (c *Cluster) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set != nil
}

// ID returns the local node id, or "" before initialization.
func (c *Cluster) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self
}

// NodeIDs returns every node id in the cluster, including the local one, in
// the order given by "init".
func (c *Cluster) NodeIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.members)
}

// IsMember reports whether id belongs to the cluster. Clients and services
// such as "lin-kv" are not members.
func (c *Cluster) IsMember(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set != nil && c.set.Contains(id)
}

// HasDuplicates reports whether the membership list named any node twice.
func (c *Cluster) HasDuplicates() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set != nil && c.set.Cardinality() != len(c.members)
}
