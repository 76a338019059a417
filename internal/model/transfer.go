package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferEvent is a decoded ERC-20 Transfer log.
type TransferEvent struct {
	Chain       string
	From        common.Address
	To          common.Address
	Amount      *big.Int // token base units
	TxHash      common.Hash
	BlockNumber uint64
}
