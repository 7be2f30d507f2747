package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// TxStatus on-chain outcome of a transaction
type TxStatus int

const (
	TxPending TxStatus = iota // no receipt yet
	TxSucceeded
	TxReverted
)

func (s TxStatus) String() string {
	switch s {
	case TxSucceeded:
		return "succeeded"
	case TxReverted:
		return "reverted"
	}
	return "pending"
}

// Client read-only Ethereum JSON-RPC client
type Client struct {
	eth     *ethclient.Client
	chainId *big.Int
}

// Dial connects to rpcURL and checks it answers
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.New("no RPC URL configured")
	}
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain: %w", err)
	}
	chainId, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	logger.Info("Connected to chain %s", chainId)
	return &Client{eth: eth, chainId: chainId}, nil
}

// ChainID of the connected network
func (c *Client) ChainID() *big.Int {
	return c.chainId
}

// CurrentBlock latest block number
func (c *Client) CurrentBlock(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// TxStatus looks up the receipt of hash
func (c *Client) TxStatus(ctx context.Context, hash string) (TxStatus, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(hash))
	if errors.Is(err, ethereum.NotFound) {
		return TxPending, nil
	}
	if err != nil {
		return TxPending, fmt.Errorf("receipt %s: %w", hash, err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return TxSucceeded, nil
	}
	return TxReverted, nil
}

// Close the RPC connection
func (c *Client) Close() {
	c.eth.Close()
}
