package execution

import (
	"github.com/rollkit/blockexec/types"
)

// VerifyWorldState checks the merkle root over the ordered state hashes of
// results against the world state commitment of header.
func VerifyWorldState(header *types.Header, results []*types.TransactionResult) Result {
	root := types.NewBinaryMerkleTree(types.StateHashes(results)...).ComputeRootHash()
	if root != header.MerkleTreeRootOfWorldState {
		return IncorrectStateMerkleTree
	}
	return UpdateWorldStateSuccess
}
