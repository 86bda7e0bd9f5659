package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

func buildSwapLog(t *testing.T, poolID common.Hash, sender common.Address) types.Log {
	t.Helper()
	managerABI, err := PoolManagerABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	event := managerABI.Events["Swap"]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(1_000_000_000_000_000),
		big.NewInt(-2_450_000),
		new(big.Int).Lsh(big.NewInt(1), 96),
		big.NewInt(5_000_000),
		big.NewInt(-120),
		big.NewInt(3000),
	)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return types.Log{
		Topics: []common.Hash{
			event.ID,
			poolID,
			common.BytesToHash(sender.Bytes()),
		},
		Data:        data,
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: 42,
		Index:       3,
	}
}

func TestDecodeSwapLog(t *testing.T) {
	key, err := BuildPoolKey(NativeCurrency, usdc, 3000, common.Address{})
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	sender := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	log := buildSwapLog(t, key.ID(), sender)

	decoded, err := DecodeSwapLog(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.PoolID != hexutil.Encode(key.ID().Bytes()) {
		t.Fatalf("pool id mismatch: %s", decoded.PoolID)
	}
	if decoded.Sender != sender.Hex() {
		t.Fatalf("sender mismatch: %s", decoded.Sender)
	}
	if decoded.Amount0 != "1000000000000000" || decoded.Amount1 != "-2450000" {
		t.Fatalf("amounts mismatch: %s %s", decoded.Amount0, decoded.Amount1)
	}
	if decoded.Tick != -120 || decoded.Fee != 3000 {
		t.Fatalf("tick/fee mismatch: %d %d", decoded.Tick, decoded.Fee)
	}
	if decoded.BlockNumber != 42 || decoded.LogIndex != 3 {
		t.Fatalf("position mismatch: %+v", decoded)
	}
}

func TestFindSwapEvent(t *testing.T) {
	key, err := BuildPoolKey(tokenA, tokenB, 500, common.Address{})
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	other := common.HexToHash("0xdead")
	target := buildSwapLog(t, key.ID(), tokenA)
	unrelated := buildSwapLog(t, other, tokenA)
	noise := &types.Log{Topics: []common.Hash{common.HexToHash("0x1234")}}

	found, ok, err := FindSwapEvent([]*types.Log{nil, noise, &unrelated, &target}, key.ID())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !ok || found.PoolID != hexutil.Encode(key.ID().Bytes()) {
		t.Fatalf("expected target swap, got %+v ok=%v", found, ok)
	}

	if _, ok, err := FindSwapEvent([]*types.Log{&unrelated}, key.ID()); ok || err != nil {
		t.Fatalf("expected no match, ok=%v err=%v", ok, err)
	}
}

func TestDecodeSwapLogRejectsForeignTopic(t *testing.T) {
	if _, err := DecodeSwapLog(types.Log{Topics: []common.Hash{common.HexToHash("0x01")}}); err == nil {
		t.Fatalf("expected error for foreign topic")
	}
}
