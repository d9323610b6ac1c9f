package mempool

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// txLinks is the per-entry link record: the set of direct in-pool parents
// and direct in-pool children, addressed by txid. Grounded on
// txmempool.h's TxLinks / mapLinks; realized here as plain hash sets since
// Go has no intrusive set container and the spec calls for "a parents set
// and a children set, each a set of entry handles" with no ordering
// requirement.
type txLinks struct {
	parents  map[chainhash.Hash]struct{}
	children map[chainhash.Hash]struct{}
}

func newTxLinks() *txLinks {
	return &txLinks{
		parents:  make(map[chainhash.Hash]struct{}),
		children: make(map[chainhash.Hash]struct{}),
	}
}

// linkGraph maps every in-pool txid to its link record. It is owned by the
// store and only ever touched under the pool's lock.
type linkGraph struct {
	links map[chainhash.Hash]*txLinks
}

func newLinkGraph() *linkGraph {
	return &linkGraph{links: make(map[chainhash.Hash]*txLinks)}
}

// get returns the link record for id, creating an empty one if absent.
func (g *linkGraph) get(id chainhash.Hash) *txLinks {
	l, ok := g.links[id]
	if !ok {
		l = newTxLinks()
		g.links[id] = l
	}
	return l
}

// parentsOf returns the direct in-pool parent ids of id, or nil if id has
// no link record.
func (g *linkGraph) parentsOf(id chainhash.Hash) map[chainhash.Hash]struct{} {
	l, ok := g.links[id]
	if !ok {
		return nil
	}
	return l.parents
}

// childrenOf returns the direct in-pool child ids of id, or nil if id has
// no link record.
func (g *linkGraph) childrenOf(id chainhash.Hash) map[chainhash.Hash]struct{} {
	l, ok := g.links[id]
	if !ok {
		return nil
	}
	return l.children
}

// link records that child is a direct child of parent: parent gains child
// as a child, and child gains parent as a parent. Used on insert, once per
// direct parent discovered via the spend map.
func (g *linkGraph) link(parent, child chainhash.Hash) {
	g.get(parent).children[child] = struct{}{}
	g.get(child).parents[parent] = struct{}{}
}

// unlink severs the direct parent/child relationship between parent and
// child, if one exists.
func (g *linkGraph) unlink(parent, child chainhash.Hash) {
	if l, ok := g.links[parent]; ok {
		delete(l.children, child)
	}
	if l, ok := g.links[child]; ok {
		delete(l.parents, parent)
	}
}

// remove severs every direct relationship touching id (from each parent's
// children and each child's parents) and drops id's own link record. The
// caller is responsible for having already computed whatever closures it
// needed before calling remove, per the store's Remove contract.
func (g *linkGraph) remove(id chainhash.Hash) {
	l, ok := g.links[id]
	if !ok {
		return
	}
	for parent := range l.parents {
		if pl, ok := g.links[parent]; ok {
			delete(pl.children, id)
		}
	}
	for child := range l.children {
		if cl, ok := g.links[child]; ok {
			delete(cl.parents, id)
		}
	}
	delete(g.links, id)
}

// size returns the number of txids with a link record in the graph.
func (g *linkGraph) size() int { return len(g.links) }

// spendMap maps every outpoint spent by an in-pool transaction to the id
// of that spender. Grounded on txmempool.h's mapNextTx.
type spendMap struct {
	spenders map[wire.OutPoint]chainhash.Hash
}

func newSpendMap() *spendMap {
	return &spendMap{spenders: make(map[wire.OutPoint]chainhash.Hash)}
}

// spenderOf returns the id of the in-pool transaction spending op, if any.
func (m *spendMap) spenderOf(op wire.OutPoint) (chainhash.Hash, bool) {
	id, ok := m.spenders[op]
	return id, ok
}

// register records that spender spends every outpoint in inputs. An
// outpoint already present is overwritten: neither register nor
// AddUnchecked checks for double spends, which is the admitting caller's
// responsibility.
func (m *spendMap) register(spender chainhash.Hash, inputs []wire.OutPoint) {
	for _, op := range inputs {
		m.spenders[op] = spender
	}
}

// unregister removes the map entry for every outpoint in inputs (the
// outpoints originally passed to register), whichever spender it names.
func (m *spendMap) unregister(inputs []wire.OutPoint) {
	for _, op := range inputs {
		delete(m.spenders, op)
	}
}
