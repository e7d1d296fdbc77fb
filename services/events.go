// services/events.go
package services

import (
	"math/big"

	"lending-pnl-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Topic IDs for the pool events of interest. Borrow and Repay exist in two
// signature generations (the older pool emits uint256 rate modes and no
// useATokens flag), so both shapes are matched and mapped to the same
// canonical action.
var (
	DepositEventID  = crypto.Keccak256Hash([]byte("Deposit(address,address,address,uint256,uint16)"))
	SupplyEventID   = crypto.Keccak256Hash([]byte("Supply(address,address,address,uint256,uint16)"))
	WithdrawEventID = crypto.Keccak256Hash([]byte("Withdraw(address,address,address,uint256)"))
	BorrowV2EventID = crypto.Keccak256Hash([]byte("Borrow(address,address,address,uint256,uint256,uint256,uint16)"))
	BorrowV3EventID = crypto.Keccak256Hash([]byte("Borrow(address,address,address,uint256,uint8,uint256,uint16)"))
	RepayV2EventID  = crypto.Keccak256Hash([]byte("Repay(address,address,address,uint256)"))
	RepayV3EventID  = crypto.Keccak256Hash([]byte("Repay(address,address,address,uint256,bool)"))
)

// PoolEventIDs is the topic0 filter set for a pool scan.
var PoolEventIDs = []common.Hash{
	DepositEventID,
	SupplyEventID,
	WithdrawEventID,
	BorrowV2EventID,
	BorrowV3EventID,
	RepayV2EventID,
	RepayV3EventID,
}

// RawEvent is the canonical shape every pool event variant maps to.
type RawEvent struct {
	Action        string
	WalletAddress common.Address
	AssetAddress  common.Address
	AmountRaw     *big.Int
}

// MapLogToRawEvent normalizes one pool log into a canonical event, or returns
// nil when the log is not applicable (unknown topic, malformed layout, or a
// zero-address wallet).
//
// Attribution rules: deposits/supplies and borrows belong to onBehalfOf — not
// the transaction sender, since routers and relayers submit on users' behalf.
// Withdrawals belong to the funds recipient, repayments to the debtor.
func MapLogToRawEvent(vLog types.Log) *RawEvent {
	if len(vLog.Topics) < 3 {
		return nil
	}
	reserve := common.HexToAddress(vLog.Topics[1].Hex())

	var event *RawEvent
	switch vLog.Topics[0] {
	case DepositEventID, SupplyEventID:
		// topics: reserve, onBehalfOf, referral — data: user, amount
		amount := amountFromData(vLog.Data, 1)
		if amount == nil {
			return nil
		}
		event = &RawEvent{
			Action:        models.ActionDeposit,
			WalletAddress: common.HexToAddress(vLog.Topics[2].Hex()),
			AssetAddress:  reserve,
			AmountRaw:     amount,
		}

	case WithdrawEventID:
		// topics: reserve, user, to — data: amount
		if len(vLog.Topics) < 4 {
			return nil
		}
		amount := amountFromData(vLog.Data, 0)
		if amount == nil {
			return nil
		}
		event = &RawEvent{
			Action:        models.ActionWithdraw,
			WalletAddress: common.HexToAddress(vLog.Topics[3].Hex()),
			AssetAddress:  reserve,
			AmountRaw:     amount,
		}

	case BorrowV2EventID, BorrowV3EventID:
		// topics: reserve, onBehalfOf, referral — data: user, amount, rateMode, borrowRate
		amount := amountFromData(vLog.Data, 1)
		if amount == nil {
			return nil
		}
		event = &RawEvent{
			Action:        models.ActionBorrow,
			WalletAddress: common.HexToAddress(vLog.Topics[2].Hex()),
			AssetAddress:  reserve,
			AmountRaw:     amount,
		}

	case RepayV2EventID, RepayV3EventID:
		// topics: reserve, user, repayer — data: amount [, useATokens]
		amount := amountFromData(vLog.Data, 0)
		if amount == nil {
			return nil
		}
		event = &RawEvent{
			Action:        models.ActionRepay,
			WalletAddress: common.HexToAddress(vLog.Topics[2].Hex()),
			AssetAddress:  reserve,
			AmountRaw:     amount,
		}

	default:
		return nil
	}

	if event.WalletAddress == (common.Address{}) {
		return nil
	}
	return event
}

// amountFromData reads the nth 32-byte word of the log data as an unsigned
// big integer.
func amountFromData(data []byte, word int) *big.Int {
	start := word * 32
	end := start + 32
	if len(data) < end {
		return nil
	}
	return new(big.Int).SetBytes(data[start:end])
}
