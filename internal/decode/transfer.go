package decode

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/doocho/usdc-whale-detector/internal/model"
)

// transferEventID is keccak256("Transfer(address,address,uint256)").
var transferEventID = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// TransferTopic returns topic0 of the ERC-20 Transfer event.
func TransferTopic() common.Hash {
	return transferEventID
}

// Decoder converts raw Transfer logs into TransferEvent values for one chain.
type Decoder struct {
	chain string
}

// NewDecoder builds a decoder tagged with the chain name.
func NewDecoder(chain string) *Decoder {
	return &Decoder{chain: chain}
}

// Decode parses an ERC-20 Transfer log. A log whose topics or data do
// not match the Transfer shape yields a *model.DecodeError.
func (d *Decoder) Decode(lg types.Log) (model.TransferEvent, error) {
	if len(lg.Topics) != 3 {
		return model.TransferEvent{}, d.decodeErr(lg, "expected 3 topics for Transfer")
	}
	if lg.Topics[0] != transferEventID {
		return model.TransferEvent{}, d.decodeErr(lg, "topic0 is not the Transfer signature")
	}
	if len(lg.Data) != 32 {
		return model.TransferEvent{}, d.decodeErr(lg, "expected 32 bytes of data for Transfer amount")
	}

	return model.TransferEvent{
		Chain:       d.chain,
		From:        common.BytesToAddress(lg.Topics[1].Bytes()[12:]),
		To:          common.BytesToAddress(lg.Topics[2].Bytes()[12:]),
		Amount:      new(big.Int).SetBytes(lg.Data),
		TxHash:      lg.TxHash,
		BlockNumber: lg.BlockNumber,
	}, nil
}

func (d *Decoder) decodeErr(lg types.Log, reason string) error {
	return &model.DecodeError{
		Chain:    d.chain,
		TxHash:   lg.TxHash.Hex(),
		LogIndex: lg.Index,
		Reason:   reason,
	}
}
