package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"reliquaryScope/internal/retry"
)

// DefaultMulticallAddress is the canonical Multicall3 deployment, shared
// across EVM chains.
var DefaultMulticallAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// ErrCallFailed marks a single failed element inside an otherwise successful
// batch.
var ErrCallFailed = errors.New("contract call failed")

// Call is one read-only contract call.
type Call struct {
	To   common.Address
	Data []byte
}

// Result is the per-call outcome of a batched read. A failed element never
// fails its siblings.
type Result struct {
	Data []byte
	Err  error
}

func (r Result) Ok() bool {
	return r.Err == nil
}

// Client wraps go-ethereum RPC and provides single and batched read calls
// with rate-limit-aware retries.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	multicall common.Address

	mu      sync.Mutex
	chainID *big.Int
}

// NewClient dials the RPC URL and targets the canonical Multicall3 address.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		multicall: DefaultMulticallAddress,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID, cached after the first read.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return cached.Uint64(), nil
	}

	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("chain id does not fit in uint64: %s", id)
	}

	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	return id.Uint64(), nil
}

// Read performs a single eth_call against the latest block.
func (c *Client) Read(ctx context.Context, call Call) ([]byte, error) {
	to := call.To
	msg := ethereum.CallMsg{To: &to, Data: call.Data}
	return c.ethClient.CallContract(ctx, msg, nil)
}

// ReadRetrying performs a single read, retrying only on provider rate
// limiting with exponential backoff plus jitter. Other failures propagate
// immediately.
func (c *Client) ReadRetrying(ctx context.Context, call Call, maxRetries int) ([]byte, error) {
	policy := retry.Policy{
		MaxRetries: maxRetries,
		BaseDelay:  400 * time.Millisecond,
		MaxJitter:  200 * time.Millisecond,
		Retryable:  IsRateLimited,
	}

	var out []byte
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.Read(ctx, call)
		return err
	})
	return out, err
}

// BatchRead executes all calls in one Multicall3 round trip. Every element of
// the result list corresponds positionally to a call; failures are recorded
// per element, never for the batch.
func (c *Client) BatchRead(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	data, err := packAggregate3(calls)
	if err != nil {
		return nil, err
	}

	resp, err := c.Read(ctx, Call{To: c.multicall, Data: data})
	if err != nil {
		return nil, fmt.Errorf("multicall: %w", err)
	}

	results, err := decodeAggregate3(resp, len(calls))
	if err != nil {
		return nil, fmt.Errorf("multicall: %w", err)
	}
	return results, nil
}

// BatchReadRetrying retries the whole batch on a rate-limit signal from the
// batch call itself. Element failures inside a successful response are not
// retried here; callers retry those specific calls individually.
func (c *Client) BatchReadRetrying(ctx context.Context, calls []Call, maxRetries int) ([]Result, error) {
	policy := retry.Policy{
		MaxRetries: maxRetries,
		BaseDelay:  300 * time.Millisecond,
		Retryable:  IsRateLimited,
	}

	var results []Result
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		results, err = c.BatchRead(ctx, calls)
		return err
	})
	return results, err
}

// IsRateLimited reports whether an error looks like provider throttling
// (HTTP 429 or an equivalent provider message).
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many")
}
