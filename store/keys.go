package store

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/rollkit/blockexec/types"
)

const (
	chainPrefix  = "c"
	resultPrefix = "r"

	heightPrefix   = "t"
	lastHashPrefix = "l"
	blockPrefix    = "b"
	indexPrefix    = "i"
	txTreePrefix   = "mt"
	sideTreePrefix = "ms"
	worldPrefix    = "w"
	deltaPrefix    = "d"
	deltaSeqPrefix = "q"
)

func chainKey(chainID types.Hash, fields ...string) string {
	return GenerateKey(append([]string{chainPrefix, chainID.String()}, fields...))
}

func getHeightKey(chainID types.Hash) string {
	return chainKey(chainID, heightPrefix)
}

func getLastHashKey(chainID types.Hash) string {
	return chainKey(chainID, lastHashPrefix)
}

func getBlockKey(chainID types.Hash, height uint64) string {
	return chainKey(chainID, blockPrefix, strconv.FormatUint(height, 10))
}

func getIndexKey(chainID types.Hash, hash types.Hash) string {
	return chainKey(chainID, indexPrefix, hash.String())
}

func getTxTreeKey(chainID types.Hash, height uint64) string {
	return chainKey(chainID, txTreePrefix, strconv.FormatUint(height, 10))
}

func getSideTreeKey(chainID types.Hash, height uint64) string {
	return chainKey(chainID, sideTreePrefix, strconv.FormatUint(height, 10))
}

// world state keys are hex encoded so arbitrary contract keys stay a single path segment
func getWorldStateKey(chainID types.Hash, key string) string {
	return chainKey(chainID, worldPrefix, hex.EncodeToString([]byte(key)))
}

func getDeltaKey(chainID types.Hash, disambiguationHash, txID types.Hash) string {
	return chainKey(chainID, deltaPrefix, disambiguationHash.String(), txID.String())
}

func getDeltaPrefix(chainID types.Hash, disambiguationHash types.Hash) string {
	return chainKey(chainID, deltaPrefix, disambiguationHash.String())
}

func getDeltaSeqKey(chainID types.Hash) string {
	return chainKey(chainID, deltaSeqPrefix)
}

func getResultKey(txID types.Hash) string {
	return GenerateKey([]string{resultPrefix, txID.String()})
}

func encodeHeight(height uint64) []byte {
	heightBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(heightBytes, height)
	return heightBytes
}

func decodeHeight(heightBytes []byte) (uint64, error) {
	if len(heightBytes) != 8 {
		return 0, errors.New("invalid height length")
	}
	return binary.LittleEndian.Uint64(heightBytes), nil
}
