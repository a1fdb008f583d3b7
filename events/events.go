// Package events builds the pool's stable log contracts (spec §6) as
// go-ethereum types.Log values. Where the teacher's nft_event_parsers.go
// decodes types.Log off-chain events, this package runs the same
// vocabulary in reverse: the pool is the log's author, not its reader.
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

func topic0(signature string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return common.BytesToHash(h.Sum(nil))
}

// Event signature hashes, one per stable log contract named in spec §6.
var (
	InitializeSig                        = topic0("Initialize(uint160,int24)")
	MintSig                               = topic0("Mint(address,address,int24,int24,uint128,uint256,uint256)")
	BurnSig                               = topic0("Burn(address,int24,int24,uint128,uint256,uint256)")
	CollectSig                            = topic0("Collect(address,address,int24,int24,uint128,uint128)")
	SwapSig                               = topic0("Swap(address,address,int256,int256,uint160,uint128,int24)")
	FlashSig                              = topic0("Flash(address,address,uint256,uint256,uint256,uint256)")
	IncreaseObservationCardinalityNextSig = topic0("IncreaseObservationCardinalityNext(uint16,uint16)")
	SetFeeProtocolSig                     = topic0("SetFeeProtocol(uint8,uint8,uint8,uint8)")
	CollectProtocolSig                    = topic0("CollectProtocol(address,address,uint128,uint128)")
)

// Sink receives finished logs; the pool never writes to a chain itself,
// it only hands already-built records to whatever collaborator the host
// wires in (an in-memory recorder in tests, a real log emitter in prod).
type Sink interface {
	Emit(log *types.Log)
}

func u256Bytes(v *uint256.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	return v.PaddedBytes(32)
}

func bigBytes(v *big.Int) []byte {
	b := make([]byte, 32)
	if v == nil {
		return b
	}
	if v.Sign() < 0 {
		// 256-bit two's complement, as the int24/int256 fields expect.
		v = new(big.Int).Add(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	v.FillBytes(b)
	return b
}

func int24Bytes(v int32) []byte {
	return bigBytes(big.NewInt(int64(v)))
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

// Initialize builds the Initialize(sqrtPriceX96, tick) log.
func Initialize(pool common.Address, sqrtPriceX96 *uint256.Int, tick int32) *types.Log {
	data := append(u256Bytes(sqrtPriceX96), int24Bytes(tick)...)
	return &types.Log{Address: pool, Topics: []common.Hash{InitializeSig}, Data: data}
}

// Mint builds the Mint(sender, owner, tickLower, tickUpper, amount, amount0, amount1) log.
func Mint(pool common.Address, sender, owner common.Address, tickLower, tickUpper int32, amount *big.Int, amount0, amount1 *uint256.Int) *types.Log {
	data := make([]byte, 0, 160)
	data = append(data, int24Bytes(tickLower)...)
	data = append(data, int24Bytes(tickUpper)...)
	data = append(data, bigBytes(amount)...)
	data = append(data, u256Bytes(amount0)...)
	data = append(data, u256Bytes(amount1)...)
	return &types.Log{
		Address: pool,
		Topics:  []common.Hash{MintSig, addressTopic(sender), addressTopic(owner)},
		Data:    data,
	}
}

// Burn builds the Burn(owner, tickLower, tickUpper, amount, amount0, amount1) log.
func Burn(pool common.Address, owner common.Address, tickLower, tickUpper int32, amount *big.Int, amount0, amount1 *uint256.Int) *types.Log {
	data := make([]byte, 0, 160)
	data = append(data, int24Bytes(tickLower)...)
	data = append(data, int24Bytes(tickUpper)...)
	data = append(data, bigBytes(amount)...)
	data = append(data, u256Bytes(amount0)...)
	data = append(data, u256Bytes(amount1)...)
	return &types.Log{
		Address: pool,
		Topics:  []common.Hash{BurnSig, addressTopic(owner)},
		Data:    data,
	}
}

// Collect builds the Collect(owner, recipient, tickLower, tickUpper, amount0, amount1) log.
func Collect(pool common.Address, owner, recipient common.Address, tickLower, tickUpper int32, amount0, amount1 *uint256.Int) *types.Log {
	data := make([]byte, 0, 160)
	data = append(data, addressTopic(recipient).Bytes()...)
	data = append(data, int24Bytes(tickLower)...)
	data = append(data, int24Bytes(tickUpper)...)
	data = append(data, u256Bytes(amount0)...)
	data = append(data, u256Bytes(amount1)...)
	return &types.Log{
		Address: pool,
		Topics:  []common.Hash{CollectSig, addressTopic(owner)},
		Data:    data,
	}
}

// Swap builds the Swap(sender, recipient, amount0, amount1, sqrtPriceX96, liquidity, tick) log.
func Swap(pool common.Address, sender, recipient common.Address, amount0, amount1 *big.Int, sqrtPriceX96 *uint256.Int, liquidity *big.Int, tick int32) *types.Log {
	data := make([]byte, 0, 192)
	data = append(data, bigBytes(amount0)...)
	data = append(data, bigBytes(amount1)...)
	data = append(data, u256Bytes(sqrtPriceX96)...)
	data = append(data, bigBytes(liquidity)...)
	data = append(data, int24Bytes(tick)...)
	return &types.Log{
		Address: pool,
		Topics:  []common.Hash{SwapSig, addressTopic(sender), addressTopic(recipient)},
		Data:    data,
	}
}

// Flash builds the Flash(sender, recipient, amount0, amount1, paid0, paid1) log.
func Flash(pool common.Address, sender, recipient common.Address, amount0, amount1, paid0, paid1 *uint256.Int) *types.Log {
	data := make([]byte, 0, 128)
	data = append(data, u256Bytes(amount0)...)
	data = append(data, u256Bytes(amount1)...)
	data = append(data, u256Bytes(paid0)...)
	data = append(data, u256Bytes(paid1)...)
	return &types.Log{
		Address: pool,
		Topics:  []common.Hash{FlashSig, addressTopic(sender), addressTopic(recipient)},
		Data:    data,
	}
}

// IncreaseObservationCardinalityNext builds the
// IncreaseObservationCardinalityNext(old, new) log.
func IncreaseObservationCardinalityNext(pool common.Address, oldNext, newNext uint16) *types.Log {
	data := append(bigBytes(big.NewInt(int64(oldNext))), bigBytes(big.NewInt(int64(newNext)))...)
	return &types.Log{Address: pool, Topics: []common.Hash{IncreaseObservationCardinalityNextSig}, Data: data}
}

// SetFeeProtocol builds the SetFeeProtocol(old0, old1, new0, new1) log.
func SetFeeProtocol(pool common.Address, old0, old1, new0, new1 uint8) *types.Log {
	data := make([]byte, 0, 128)
	for _, v := range []uint8{old0, old1, new0, new1} {
		data = append(data, bigBytes(big.NewInt(int64(v)))...)
	}
	return &types.Log{Address: pool, Topics: []common.Hash{SetFeeProtocolSig}, Data: data}
}

// CollectProtocol builds the CollectProtocol(sender, recipient, amount0, amount1) log.
func CollectProtocol(pool common.Address, sender, recipient common.Address, amount0, amount1 *uint256.Int) *types.Log {
	data := append(u256Bytes(amount0), u256Bytes(amount1)...)
	return &types.Log{
		Address: pool,
		Topics:  []common.Hash{CollectProtocolSig, addressTopic(sender), addressTopic(recipient)},
		Data:    data,
	}
}
