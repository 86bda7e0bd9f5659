package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"swapDesk/internal/model"
)

// SwapEventTopic returns topic0 of the pool manager Swap event.
func SwapEventTopic() (common.Hash, error) {
	managerABI, err := PoolManagerABI()
	if err != nil {
		return common.Hash{}, err
	}
	return managerABI.Events["Swap"].ID, nil
}

// DecodeSwapLog decodes a pool manager Swap log.
func DecodeSwapLog(log types.Log) (model.SwapEventData, error) {
	managerABI, err := PoolManagerABI()
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse pool manager abi: %w", err)
	}
	event := managerABI.Events["Swap"]

	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return model.SwapEventData{}, fmt.Errorf("not a swap log")
	}
	indexedArgs := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexedArgs)+1 {
		return model.SwapEventData{}, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(log.Topics))
	}

	var indexed struct {
		Id     [32]byte
		Sender common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArgs, log.Topics[1:]); err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != 6 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEventData{}, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return model.SwapEventData{}, err
	}
	sqrtPrice, err := asBigInt(values[2])
	if err != nil {
		return model.SwapEventData{}, err
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.SwapEventData{}, err
	}
	fee, err := asBigInt(values[5])
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		PoolID:       hexutil.Encode(indexed.Id[:]),
		Sender:       indexed.Sender.Hex(),
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		SqrtPriceX96: sqrtPrice.String(),
		Liquidity:    liquidity.String(),
		Tick:         tick,
		Fee:          uint32(fee.Uint64()),
		TxHash:       log.TxHash.Hex(),
		BlockNumber:  log.BlockNumber,
		LogIndex:     uint64(log.Index),
	}, nil
}

// FindSwapEvent returns the first Swap log for poolID.
func FindSwapEvent(logs []*types.Log, poolID common.Hash) (model.SwapEventData, bool, error) {
	topic, err := SwapEventTopic()
	if err != nil {
		return model.SwapEventData{}, false, err
	}
	for _, log := range logs {
		if log == nil || len(log.Topics) < 2 {
			continue
		}
		if log.Topics[0] != topic || log.Topics[1] != poolID {
			continue
		}
		decoded, err := DecodeSwapLog(*log)
		if err != nil {
			return model.SwapEventData{}, false, err
		}
		return decoded, true, nil
	}
	return model.SwapEventData{}, false, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
