package payout

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/xerrors"

	baseabi "github.com/unit-xyz/goapi/base/abi"
	bCtx "github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/base/metrics"
	"github.com/unit-xyz/goapi/domain"
)

const nativeTransferGasLimit = 21000

// Service issues the marketplace's outbound transfers, signed by the
// treasury operator key. Every method is synchronous and waits for the
// transaction to be mined; a reverted receipt is an error.
type Service interface {
	// TransferNative pays out native currency from the treasury.
	TransferNative(ctx bCtx.Ctx, to domain.Address, amount *big.Int) error
	// TransferErc20 pays out tokens held by the treasury.
	TransferErc20(ctx bCtx.Ctx, token, to domain.Address, amount *big.Int) error
	// PullErc20 pulls tokens from a buyer into the treasury via the
	// allowance granted to the treasury address.
	PullErc20(ctx bCtx.Ctx, token, from domain.Address, amount *big.Int) error
	// TransferErc721 moves an NFT between accounts via the approval
	// granted to the treasury address.
	TransferErc721(ctx bCtx.Ctx, nft, from, to domain.Address, tokenId *big.Int) error
	// TreasuryAddress is the operator identity holding approvals.
	TreasuryAddress() domain.Address
}

type ServiceCfg struct {
	RpcUrl        string
	ChainId       int64
	PrivateKeyHex string
}

type impl struct {
	client   *ethclient.Client
	chainId  *big.Int
	key      *ecdsa.PrivateKey
	treasury common.Address
	met      metrics.Service
}

func New(ctx bCtx.Ctx, cfg *ServiceCfg) (Service, error) {
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, xerrors.Errorf("dial rpc: %w", err)
	}
	key, err := crypto.HexToECDSA(cfg.PrivateKeyHex)
	if err != nil {
		return nil, xerrors.Errorf("parse treasury key: %w", err)
	}
	return &impl{
		client:   client,
		chainId:  big.NewInt(cfg.ChainId),
		key:      key,
		treasury: crypto.PubkeyToAddress(key.PublicKey),
		met:      metrics.New("payout"),
	}, nil
}

func (im *impl) TreasuryAddress() domain.Address {
	return domain.Address(im.treasury.Hex()).ToLower()
}

func (im *impl) TransferNative(ctx bCtx.Ctx, to domain.Address, amount *big.Int) error {
	defer im.met.BumpTime("transferNative.time").End()
	return im.send(ctx, common.HexToAddress(string(to)), amount, nil, nativeTransferGasLimit)
}

func (im *impl) TransferErc20(ctx bCtx.Ctx, token, to domain.Address, amount *big.Int) error {
	defer im.met.BumpTime("transferErc20.time").End()
	data, err := baseabi.ERC20TokenABI.Pack("transfer", common.HexToAddress(string(to)), amount)
	if err != nil {
		return err
	}
	return im.send(ctx, common.HexToAddress(string(token)), nil, data, 0)
}

func (im *impl) PullErc20(ctx bCtx.Ctx, token, from domain.Address, amount *big.Int) error {
	defer im.met.BumpTime("pullErc20.time").End()
	data, err := baseabi.ERC20TokenABI.Pack("transferFrom", common.HexToAddress(string(from)), im.treasury, amount)
	if err != nil {
		return err
	}
	return im.send(ctx, common.HexToAddress(string(token)), nil, data, 0)
}

func (im *impl) TransferErc721(ctx bCtx.Ctx, nft, from, to domain.Address, tokenId *big.Int) error {
	defer im.met.BumpTime("transferErc721.time").End()
	data, err := baseabi.ERC721TokenABI.Pack("safeTransferFrom", common.HexToAddress(string(from)), common.HexToAddress(string(to)), tokenId)
	if err != nil {
		return err
	}
	return im.send(ctx, common.HexToAddress(string(nft)), nil, data, 0)
}

func (im *impl) send(ctx bCtx.Ctx, to common.Address, value *big.Int, data []byte, gasLimit uint64) error {
	nonce, err := im.client.PendingNonceAt(ctx, im.treasury)
	if err != nil {
		ctx.WithField("err", err).Error("client.PendingNonceAt failed")
		return err
	}
	gasPrice, err := im.client.SuggestGasPrice(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("client.SuggestGasPrice failed")
		return err
	}
	if value == nil {
		value = big.NewInt(0)
	}
	if gasLimit == 0 {
		gasLimit, err = im.client.EstimateGas(ctx, ethereumCallMsg(im.treasury, to, value, data))
		if err != nil {
			ctx.WithField("err", err).Error("client.EstimateGas failed")
			return err
		}
	}
	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(im.chainId), im.key)
	if err != nil {
		ctx.WithField("err", err).Error("types.SignTx failed")
		return err
	}
	if err := im.client.SendTransaction(ctx, signed); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"tx":  signed.Hash().Hex(),
		}).Error("client.SendTransaction failed")
		return err
	}
	receipt, err := bind.WaitMined(ctx, im.client, signed)
	if err != nil {
		ctx.WithField("err", err).Error("bind.WaitMined failed")
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		im.met.BumpSum("send.err", 1)
		return xerrors.Errorf("transaction %s reverted", signed.Hash().Hex())
	}
	return nil
}

func ethereumCallMsg(from, to common.Address, value *big.Int, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	}
}
