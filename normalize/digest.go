package normalize

import (
	"encoding/binary"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/proofworks/zevm-harness/fixture"
)

// stateDigest derives a single digest over a pre-state allocation. The
// digest only serves as a stable fingerprint of the generation inputs, so it
// hashes a deterministic serialization: addresses in ascending order, each
// followed by balance, nonce, code and sorted storage.
func stateDigest(alloc fixture.Alloc) common.Hash {
	addresses := make([]common.Address, 0, len(alloc))
	for address := range alloc {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Cmp(addresses[j]) < 0
	})

	hasher := sha3.NewLegacyKeccak256()
	var scratch [8]byte
	for _, address := range addresses {
		account := alloc[address]
		hasher.Write(address[:])

		if account.Balance != nil {
			var balance [32]byte
			account.Balance.Big().FillBytes(balance[:])
			hasher.Write(balance[:])
		}
		binary.BigEndian.PutUint64(scratch[:], account.Nonce.Uint64())
		hasher.Write(scratch[:])
		hasher.Write(account.Code)

		keys := make([]string, 0, len(account.Storage))
		for key := range account.Storage {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			word, err := storageWord(key)
			if err != nil {
				continue
			}
			hasher.Write(word[:])
			if value := account.Storage[key]; value != nil {
				var valueWord [32]byte
				value.Big().FillBytes(valueWord[:])
				hasher.Write(valueWord[:])
			}
		}
	}

	var digest common.Hash
	hasher.Sum(digest[:0])
	return digest
}
