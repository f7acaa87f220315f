package pathfinder

import "github.com/nullkiller/aicore/actors"

// Search runs the full three-pass chain pathfinder for one turn (spec
// §4.6.2) and returns every node committed to storage by the end of it.
func (ns *NodeStorage) Search(initialActors []*actors.ChainActor, world WorldView) []*AIPathNode {
	ns.SearchInitial(initialActors, world)
	_, heroChainTurn := ns.SearchChain(world)
	ns.SearchFinal(heroChainTurn, world)
	return ns.All()
}
