package dex

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swapDesk/internal/swaperr"
)

var (
	tokenA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	usdc   = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	hook   = common.HexToAddress("0x0000000000000000000000000000000000000c40")
)

func TestBuildPoolKeyOrderIndependent(t *testing.T) {
	pairs := [][2]common.Address{
		{tokenA, tokenB},
		{usdc, tokenA},
		{NativeCurrency, usdc},
		{common.Address{}, tokenB},
	}
	for _, pair := range pairs {
		forward, err := BuildPoolKey(pair[0], pair[1], 3000, common.Address{})
		if err != nil {
			t.Fatalf("build forward: %v", err)
		}
		reverse, err := BuildPoolKey(pair[1], pair[0], 3000, common.Address{})
		if err != nil {
			t.Fatalf("build reverse: %v", err)
		}
		if forward != reverse {
			t.Fatalf("order dependence: %s != %s", forward, reverse)
		}
		if bytes.Compare(forward.Currency0.Bytes(), forward.Currency1.Bytes()) >= 0 {
			t.Fatalf("currencies not sorted: %s", forward)
		}
	}
}

func TestBuildPoolKeyNormalizesNative(t *testing.T) {
	fromSentinel, err := BuildPoolKey(NativeCurrency, usdc, 3000, common.Address{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	fromZero, err := BuildPoolKey(common.Address{}, usdc, 3000, common.Address{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if fromSentinel != fromZero {
		t.Fatalf("native sentinels should produce the same key")
	}
	if fromSentinel.Currency0 != (common.Address{}) || fromSentinel.Currency1 != usdc {
		t.Fatalf("unexpected currencies: %s", fromSentinel)
	}
	lower := common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	if !IsNative(lower) {
		t.Fatalf("lowercase sentinel should be native")
	}
}

func TestBuildPoolKeyRejectsIdenticalTokens(t *testing.T) {
	if _, err := BuildPoolKey(tokenA, tokenA, 3000, common.Address{}); !errors.Is(err, swaperr.InvalidPoolError) {
		t.Fatalf("expected InvalidPoolError, got %v", err)
	}
	if _, err := BuildPoolKey(NativeCurrency, common.Address{}, 500, common.Address{}); !errors.Is(err, swaperr.InvalidPoolError) {
		t.Fatalf("native sentinels normalize to the same token: %v", err)
	}
	if _, err := BuildPoolKey(tokenA, tokenB, MaxFee, common.Address{}); !errors.Is(err, swaperr.InvalidPoolError) {
		t.Fatalf("expected fee overflow rejection, got %v", err)
	}
}

func TestTickSpacingForFee(t *testing.T) {
	want := map[uint32]int32{100: 1, 500: 10, 3000: 60, 10000: 200, 2500: 60, 0: 60}
	for fee, spacing := range want {
		if got := TickSpacingForFee(fee); got != spacing {
			t.Fatalf("fee %d: got %d want %d", fee, got, spacing)
		}
	}
}

func TestPoolKeyEncode(t *testing.T) {
	key := PoolKey{Currency0: tokenA, Currency1: tokenB, Fee: 3000, TickSpacing: -2, Hooks: hook}
	encoded := key.Encode()
	if len(encoded) != 66 {
		t.Fatalf("encoded length %d", len(encoded))
	}
	if !bytes.Equal(encoded[:20], tokenA.Bytes()) || !bytes.Equal(encoded[20:40], tokenB.Bytes()) {
		t.Fatalf("currency bytes mismatch")
	}
	if !bytes.Equal(encoded[40:43], []byte{0x00, 0x0b, 0xb8}) {
		t.Fatalf("fee bytes mismatch: %x", encoded[40:43])
	}
	if !bytes.Equal(encoded[43:46], []byte{0xff, 0xff, 0xfe}) {
		t.Fatalf("tick spacing bytes mismatch: %x", encoded[43:46])
	}
	if !bytes.Equal(encoded[46:], hook.Bytes()) {
		t.Fatalf("hooks bytes mismatch")
	}
}

func TestPoolIdentifierStableAndSensitive(t *testing.T) {
	base, err := BuildPoolKey(tokenA, tokenB, 3000, hook)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	id := PoolIdentifier(base)
	if id != base.ID() || id != PoolIdentifier(base) {
		t.Fatalf("identifier not stable")
	}
	if id == (common.Hash{}) {
		t.Fatalf("identifier is zero")
	}

	variants := []PoolKey{}
	for _, build := range []func() (PoolKey, error){
		func() (PoolKey, error) { return BuildPoolKey(usdc, tokenB, 3000, hook) },
		func() (PoolKey, error) { return BuildPoolKey(tokenA, usdc, 3000, hook) },
		func() (PoolKey, error) { return BuildPoolKey(tokenA, tokenB, 500, hook) },
		func() (PoolKey, error) { return BuildPoolKey(tokenA, tokenB, 3000, common.Address{}) },
	} {
		key, err := build()
		if err != nil {
			t.Fatalf("build variant: %v", err)
		}
		variants = append(variants, key)
	}
	spacing := base
	spacing.TickSpacing = 10
	variants = append(variants, spacing)

	seen := map[common.Hash]struct{}{id: {}}
	for _, key := range variants {
		other := key.ID()
		if _, dup := seen[other]; dup {
			t.Fatalf("identifier collision for %s", key)
		}
		seen[other] = struct{}{}
	}
}

func TestParseToken(t *testing.T) {
	got, err := ParseToken(" 0x1c7d4b196cb0c7b01d743fbc6116a902379c7238 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != usdc {
		t.Fatalf("parsed %s", got.Hex())
	}
	if _, err := ParseToken("0x1234"); !errors.Is(err, swaperr.InvalidPoolError) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestParsePoolID(t *testing.T) {
	key, err := BuildPoolKey(tokenA, tokenB, 3000, hook)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	id, err := ParsePoolID(" " + key.ID().Hex() + " ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != key.ID() {
		t.Fatalf("pool id mismatch: %s", id.Hex())
	}
	for _, input := range []string{"", "0x1234", "abcd", key.ID().Hex() + "00"} {
		if _, err := ParsePoolID(input); !errors.Is(err, swaperr.InvalidPoolError) {
			t.Fatalf("%q: expected InvalidPoolError, got %v", input, err)
		}
	}
}
