// Package clients contains the live connectivity layer: one authenticated
// Hive session whose single active key signs every broadcast, plus read
// access to the Hive-Engine sidechain contracts API.
package clients

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/internal/entity"
)

const (
	// DefaultNode is the Hive API node used when none is configured.
	DefaultNode = "https://api.hive.blog"
	// DefaultEngineNode is the Hive-Engine contracts endpoint.
	DefaultEngineNode = "https://api.hive-engine.com/rpc/contracts"

	// sidechainID routes custom_json ops to the Hive-Engine sidechain.
	sidechainID = "ssc-mainnet-hive"

	// tokenPrecision is the quantity precision accepted by engine contracts.
	tokenPrecision = 8

	// expirationWindow is how far past head block time broadcasts stay valid.
	expirationWindow = 30 * time.Second

	requestTimeout = 30 * time.Second

	balancePageLimit = 1000
)

// HiveClient is a single authenticated session shared read-only across all
// per-account operations. It is never mutated after construction; every
// transaction it broadcasts is signed with the one authority key.
type HiveClient struct {
	httpc      *http.Client
	node       string
	engineNode string
	key        *ecdsa.PrivateKey
	logger     *zap.Logger
}

// NewHiveClient decodes the authority key and verifies the node is
// reachable. Both failure modes are fatal for the run.
func NewHiveClient(ctx context.Context, node, engineNode, activeKeyWIF string, logger *zap.Logger) (*HiveClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if node == "" {
		node = DefaultNode
	}
	if engineNode == "" {
		engineNode = DefaultEngineNode
	}

	key, err := DecodeWIF(activeKeyWIF)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode active key")
	}

	client := &HiveClient{
		httpc:      &http.Client{Timeout: requestTimeout},
		node:       node,
		engineNode: engineNode,
		key:        key,
		logger:     logger,
	}

	props, err := client.dynamicGlobalProperties(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reach Hive node %s", node)
	}

	logger.Info("connected to Hive",
		zap.String("node", node),
		zap.String("engine_node", engineNode),
		zap.Uint32("head_block", props.HeadBlockNumber),
		zap.String("signing_key", PublicKeyString(key)))
	return client, nil
}

// EnsureAccount verifies the account exists on chain so a per-account view
// can be built under the authority key.
func (c *HiveClient) EnsureAccount(ctx context.Context, account string) error {
	raw, err := c.call(ctx, c.node, "condenser_api.get_accounts", []interface{}{[]string{account}})
	if err != nil {
		return errors.Wrapf(err, "failed to look up account %s", account)
	}

	var accounts []json.RawMessage
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return errors.Wrapf(err, "failed to parse account lookup for %s", account)
	}
	if len(accounts) == 0 {
		return errors.Errorf("account %s does not exist", account)
	}
	return nil
}

type balanceRow struct {
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}

// Balances returns a fresh liquid token balance snapshot for the account
// from the engine tokens contract.
func (c *HiveClient) Balances(ctx context.Context, account string) ([]entity.TokenBalance, error) {
	params := map[string]interface{}{
		"contract": "tokens",
		"table":    "balances",
		"query":    map[string]string{"account": account},
		"limit":    balancePageLimit,
		"offset":   0,
	}
	raw, err := c.call(ctx, c.engineNode, "find", params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch balances for %s", account)
	}

	var rows []balanceRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrapf(err, "failed to parse balances for %s", account)
	}

	balances := make([]entity.TokenBalance, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Balance)
		if err != nil {
			c.logger.Warn("skipping unparsable balance",
				zap.String("account", account),
				zap.String("symbol", row.Symbol),
				zap.String("balance", row.Balance))
			continue
		}
		balances = append(balances, entity.TokenBalance{Symbol: row.Symbol, Amount: amount})
	}
	return balances, nil
}

type bookRow struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// OrderBookPage fetches one page of the market contract's buy or sell book.
// Rows with absent or malformed prices come back as zero-price levels; the
// aggregator decides what to do with them.
func (c *HiveClient) OrderBookPage(ctx context.Context, symbol string, side entity.BookSide, limit, offset int) ([]entity.OrderBookLevel, error) {
	table := "buyBook"
	descending := true
	if side == entity.SideAsk {
		table = "sellBook"
		descending = false
	}

	params := map[string]interface{}{
		"contract": "market",
		"table":    table,
		"query":    map[string]string{"symbol": symbol},
		"limit":    limit,
		"offset":   offset,
		"indexes":  []map[string]interface{}{{"index": "priceDec", "descending": descending}},
	}
	raw, err := c.call(ctx, c.engineNode, "find", params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s page for %s", table, symbol)
	}

	var rows []bookRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s page for %s", table, symbol)
	}

	levels := make([]entity.OrderBookLevel, 0, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			price = decimal.Zero
		}
		quantity, err := decimal.NewFromString(row.Quantity)
		if err != nil {
			quantity = decimal.Zero
		}
		levels = append(levels, entity.OrderBookLevel{Price: price, Quantity: quantity})
	}
	return levels, nil
}

// SubmitTrade places a limit order on the engine market contract on behalf
// of account, signed by the authority key.
func (c *HiveClient) SubmitTrade(ctx context.Context, account, symbol string, amount, price decimal.Decimal, direction entity.Direction) (string, error) {
	action := "sell"
	if direction == entity.DirectionBuy {
		action = "buy"
	}
	payload := map[string]interface{}{
		"contractName":   "market",
		"contractAction": action,
		"contractPayload": map[string]string{
			"symbol":   symbol,
			"quantity": amount.RoundFloor(tokenPrecision).String(),
			"price":    price.RoundFloor(tokenPrecision).String(),
		},
	}
	return c.broadcastContractCall(ctx, account, payload)
}

// SubmitTransfer moves tokens from account to another account.
func (c *HiveClient) SubmitTransfer(ctx context.Context, account, to, symbol string, amount decimal.Decimal, memo string) (string, error) {
	payload := map[string]interface{}{
		"contractName":   "tokens",
		"contractAction": "transfer",
		"contractPayload": map[string]string{
			"symbol":   symbol,
			"to":       to,
			"quantity": amount.RoundFloor(tokenPrecision).String(),
			"memo":     memo,
		},
	}
	return c.broadcastContractCall(ctx, account, payload)
}

// SubmitStake moves tokens from the account's liquid balance into stake.
func (c *HiveClient) SubmitStake(ctx context.Context, account, symbol string, amount decimal.Decimal) (string, error) {
	payload := map[string]interface{}{
		"contractName":   "tokens",
		"contractAction": "stake",
		"contractPayload": map[string]string{
			"symbol":   symbol,
			"to":       account,
			"quantity": amount.RoundFloor(tokenPrecision).String(),
		},
	}
	return c.broadcastContractCall(ctx, account, payload)
}

// broadcastContractCall wraps an engine contract call in a custom_json op
// with required_auths scoped to the acting account, signs it with the
// authority key and broadcasts it. Returns the transaction id.
func (c *HiveClient) broadcastContractCall(ctx context.Context, account string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode contract payload")
	}

	props, err := c.dynamicGlobalProperties(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch chain properties")
	}

	headTime, err := time.Parse(expirationFormat, props.Time)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse head block time %q", props.Time)
	}

	headID, err := hex.DecodeString(props.HeadBlockID)
	if err != nil || len(headID) < 8 {
		return "", errors.Errorf("malformed head block id %q", props.HeadBlockID)
	}

	op := customJSON{
		RequiredAuths:        []string{account},
		RequiredPostingAuths: []string{},
		ID:                   sidechainID,
		JSON:                 string(body),
	}

	tx, err := signCustomJSON(
		c.key,
		uint16(props.HeadBlockNumber&0xffff),
		binary.LittleEndian.Uint32(headID[4:8]),
		headTime.Add(expirationWindow),
		op,
	)
	if err != nil {
		return "", err
	}

	if _, err := c.call(ctx, c.node, "condenser_api.broadcast_transaction", []interface{}{tx}); err != nil {
		return "", errors.Wrap(err, "broadcast failed")
	}

	return transactionID(tx, op), nil
}

type globalProperties struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            string `json:"time"`
}

func (c *HiveClient) dynamicGlobalProperties(ctx context.Context) (globalProperties, error) {
	raw, err := c.call(ctx, c.node, "condenser_api.get_dynamic_global_properties", []interface{}{})
	if err != nil {
		return globalProperties{}, err
	}

	var props globalProperties
	if err := json.Unmarshal(raw, &props); err != nil {
		return globalProperties{}, errors.Wrap(err, "failed to parse dynamic global properties")
	}
	return props, nil
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC 2.0 request against the given endpoint. Calls
// are never retried: a failed read skips the affected unit, and a failed
// broadcast must not be resubmitted blindly.
func (c *HiveClient) call(ctx context.Context, endpoint, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc call %s failed", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("rpc call %s returned status %d", method, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rpc response for %s", method)
	}

	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to parse rpc response for %s", method)
	}
	if parsed.Error != nil {
		return nil, errors.Errorf("rpc call %s failed: %s (code %d)", method, parsed.Error.Message, parsed.Error.Code)
	}
	return parsed.Result, nil
}

// transactionID is the first 20 bytes of the sha256 of the serialized
// transaction, hex encoded.
func transactionID(tx signedTransaction, op customJSON) string {
	exp, err := time.Parse(expirationFormat, tx.Expiration)
	if err != nil {
		return ""
	}
	serialized := serializeTransaction(tx.RefBlockNum, tx.RefBlockPrefix, exp, op)
	digest := sha256.Sum256(serialized)
	return fmt.Sprintf("%x", digest[:20])
}
