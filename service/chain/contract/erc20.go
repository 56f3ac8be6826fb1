package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	baseabi "github.com/unit-xyz/goapi/base/abi"
	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/service/chain"
)

// Erc20Contract is the query-only fungible-token capability consumed by
// the marketplace: allowance and balance checks.
type Erc20Contract interface {
	Allowance(ctx bCtx.Ctx, chainId int32, addr string, owner, spender string) (*big.Int, error)
	BalanceOf(ctx bCtx.Ctx, chainId int32, addr string, account string) (*big.Int, error)
}

type Erc20 struct {
	chainService chain.Client
	abi          ethabi.ABI
}

func NewErc20(chainService chain.Client) *Erc20 {
	return &Erc20{
		abi:          baseabi.ERC20TokenABI,
		chainService: chainService,
	}
}

func (e *Erc20) Allowance(ctx bCtx.Ctx, chainId int32, addr string, owner, spender string) (*big.Int, error) {
	method := "allowance"
	unpacked, err := e.chainService.Call(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}
	return unpacked[0].(*big.Int), nil
}

func (e *Erc20) BalanceOf(ctx bCtx.Ctx, chainId int32, addr string, account string) (*big.Int, error) {
	method := "balanceOf"
	unpacked, err := e.chainService.Call(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, common.HexToAddress(account))
	if err != nil {
		return nil, err
	}
	return unpacked[0].(*big.Int), nil
}
