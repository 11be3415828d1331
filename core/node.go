package core

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	txerrors "gainjar/core/errors"
	"gainjar/core/events"
	"gainjar/core/genesis"
	gjstate "gainjar/core/state"
	"gainjar/core/types"
	"gainjar/crypto"
	"gainjar/native/bank"
	nativecommon "gainjar/native/common"
	"gainjar/native/payroll"
	"gainjar/observability"
	"gainjar/storage"
	"gainjar/storage/trie"
)

var headKey = []byte("gainjar/head")

type headRecord struct {
	Height uint64
	Root   common.Hash
}

// DefaultVaultAddress is the custody account used when none is configured.
func DefaultVaultAddress() [20]byte {
	var out [20]byte
	copy(out[:], ethcrypto.Keccak256([]byte("gainjar/payroll/vault"))[12:])
	return out
}

// NodeConfig wires the node's collaborators.
type NodeConfig struct {
	ChainID       string
	Vault         [20]byte
	TriggerPolicy payroll.TriggerPolicy
	Pauses        nativecommon.PauseView
	Genesis       []genesis.Alloc
	Logger        *slog.Logger
	Now           func() time.Time
}

// Receipt describes a committed transaction.
type Receipt struct {
	TxHash    string
	Height    uint64
	StateRoot common.Hash
	Events    []EventRecord
}

// Node executes signed payroll transactions one at a time against the state
// trie and commits a new root after each one.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	trie    *trie.Trie
	state   *gjstate.Manager
	bank    *bank.Ledger
	payroll *payroll.Engine
	buffer  *txBuffer
	hub     *eventHub
	sinks   []EventSink

	chainID string
	vault   [20]byte
	height  uint64
	logger  *slog.Logger
	now     func() time.Time
}

// NewNode opens the state stored in db, or initialises it from the genesis
// allocations when db is empty.
func NewNode(db storage.Database, cfg NodeConfig) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database must not be nil")
	}
	chainID := strings.TrimSpace(cfg.ChainID)
	if chainID == "" {
		return nil, fmt.Errorf("core: chain id required")
	}
	head, found, err := loadHead(db)
	if err != nil {
		return nil, err
	}
	var root []byte
	if found {
		root = head.Root.Bytes()
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("core: open state trie: %w", err)
	}

	n := &Node{
		db:      db,
		trie:    tr,
		state:   gjstate.NewManager(tr),
		buffer:  &txBuffer{},
		hub:     newEventHub(),
		chainID: chainID,
		vault:   cfg.Vault,
		height:  head.Height,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
	if found {
		if err := n.state.CheckSchema(chainID); err != nil {
			return nil, fmt.Errorf("core: %w", err)
		}
	}
	if n.vault == ([20]byte{}) {
		n.vault = DefaultVaultAddress()
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.now == nil {
		n.now = time.Now
	}

	n.bank = bank.NewLedger(n.state)
	n.bank.SetEmitter(n.buffer)
	n.payroll = payroll.NewEngine(n.state)
	n.payroll.SetEmitter(n.buffer)
	n.payroll.SetTransferer(bank.VaultTransferer{Ledger: n.bank, Vault: n.vault})
	n.payroll.SetPauses(cfg.Pauses)
	n.payroll.SetTriggerPolicy(cfg.TriggerPolicy)
	n.payroll.SetNowFunc(func() uint64 { return uint64(n.now().Unix()) })

	if !found {
		if err := n.initGenesis(cfg.Genesis); err != nil {
			return nil, err
		}
	}
	n.logger.Info("node ready",
		slog.String("chain_id", n.chainID),
		slog.Uint64("height", n.height),
		slog.String("state_root", n.trie.Root().Hex()),
		slog.String("vault", crypto.FormatAddress(n.vault)),
		slog.String("trigger_policy", cfg.TriggerPolicy.String()))
	return n, nil
}

func (n *Node) initGenesis(allocs []genesis.Alloc) error {
	if err := n.state.WriteSchema(n.chainID); err != nil {
		return fmt.Errorf("core: genesis: %w", err)
	}
	if err := genesis.Apply(n.bank, allocs); err != nil {
		return fmt.Errorf("core: genesis: %w", err)
	}
	n.buffer.reset()
	if _, err := n.commit(0); err != nil {
		return fmt.Errorf("core: genesis commit: %w", err)
	}
	return nil
}

func loadHead(db storage.Database) (headRecord, bool, error) {
	var head headRecord
	raw, err := db.Get(headKey)
	if errors.Is(err, storage.ErrNotFound) {
		return head, false, nil
	}
	if err != nil {
		return head, false, fmt.Errorf("core: load head: %w", err)
	}
	if err := rlp.DecodeBytes(raw, &head); err != nil {
		return head, false, fmt.Errorf("core: decode head: %w", err)
	}
	return head, true, nil
}

func (n *Node) commit(height uint64) (common.Hash, error) {
	parent := n.trie.Root()
	root, err := n.state.Commit(height)
	if err != nil {
		if resetErr := n.trie.Reset(parent); resetErr != nil {
			return common.Hash{}, fmt.Errorf("%v (rollback failed: %w)", err, resetErr)
		}
		return common.Hash{}, err
	}
	encoded, err := rlp.EncodeToBytes(headRecord{Height: height, Root: root})
	if err != nil {
		return common.Hash{}, err
	}
	if err := n.db.Put(headKey, encoded); err != nil {
		return common.Hash{}, fmt.Errorf("core: persist head: %w", err)
	}
	n.height = height
	return root, nil
}

// SubmitTransaction verifies, executes and commits tx. A transaction whose
// operation fails leaves no trace in state and does not consume its nonce.
func (n *Node) SubmitTransaction(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrInvalidPayload)
	}
	from, err := tx.From()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", txerrors.ErrInvalidSignature, err)
	}
	var caller [20]byte
	copy(caller[:], from)
	if tx.ChainID != n.chainID {
		return nil, fmt.Errorf("%w: expected %q, got %q", txerrors.ErrChainIDMismatch, n.chainID, tx.ChainID)
	}
	op, err := DecodeOp(tx)
	if err != nil {
		return nil, err
	}
	rawHash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	txHash := "0x" + hex.EncodeToString(rawHash)
	logger := n.logger.With(
		slog.String("tx_hash", txHash),
		slog.String("op", op.Name()),
		slog.String("caller", crypto.FormatAddress(caller)),
		slog.Uint64("nonce", tx.Nonce))

	n.mu.Lock()
	defer n.mu.Unlock()

	expected, err := n.state.Nonce(caller)
	if err != nil {
		return nil, err
	}
	if tx.Nonce != expected {
		return nil, fmt.Errorf("%w: expected %d, got %d", txerrors.ErrNonceMismatch, expected, tx.Nonce)
	}

	cp := n.state.Checkpoint()
	n.buffer.reset()
	if err := n.apply(caller, op); err != nil {
		n.state.Revert(cp)
		n.buffer.reset()
		observability.Payroll().RecordOperation(op.Name(), outcomeLabel(err))
		logger.Warn("transaction rejected", slog.Any("error", err))
		return nil, err
	}
	if err := n.state.IncrementNonce(caller); err != nil {
		n.state.Revert(cp)
		n.buffer.reset()
		return nil, err
	}
	root, err := n.commit(n.height + 1)
	if err != nil {
		n.buffer.reset()
		return nil, err
	}
	observability.Payroll().RecordOperation(op.Name(), "success")

	records := n.publish(ctx, txHash, n.buffer.drain())
	logger.Info("transaction applied",
		slog.Uint64("height", n.height),
		slog.String("state_root", root.Hex()),
		slog.Int("events", len(records)))
	return &Receipt{TxHash: txHash, Height: n.height, StateRoot: root, Events: records}, nil
}

// apply runs the operation and, for deposits, moves the employer's tokens into
// custody. Both happen under the caller's checkpoint.
func (n *Node) apply(caller [20]byte, op payroll.Op) error {
	if err := n.payroll.Apply(caller, op); err != nil {
		return err
	}
	deposit, ok := op.(payroll.DepositOp)
	if !ok {
		return nil
	}
	if err := n.bank.Transfer(deposit.Token, caller, n.vault, deposit.Amount); err != nil {
		return fmt.Errorf("%w: %w", txerrors.ErrCustodyTransfer, err)
	}
	return nil
}

func (n *Node) publish(ctx context.Context, txHash string, pending []events.Event) []EventRecord {
	if len(pending) == 0 {
		return nil
	}
	ts := n.now().UTC()
	records := make([]EventRecord, 0, len(pending))
	for _, evt := range pending {
		wire := events.Wire(evt)
		if wire == nil {
			continue
		}
		record := EventRecord{
			Height:    n.height,
			TxHash:    txHash,
			Index:     len(records),
			Timestamp: ts,
			Type:      wire.Type,
			Attrs:     wire.Attributes,
		}
		records = append(records, record)
		observability.Events().RecordPublished(record.Type)
		switch e := evt.(type) {
		case events.PaymentExecuted:
			observability.Payroll().RecordPayout(crypto.FormatAddress(e.Token))
			n.logger.Info("salary paid",
				slog.String("employer", crypto.FormatAddress(e.Employer)),
				slog.String("employee", crypto.FormatAddress(e.Employee)),
				slog.String("amount", e.Amount.Dec()))
		case events.Transfer:
			observability.Events().RecordTransfer(crypto.FormatAddress(e.Token))
		}
		n.hub.publish(record)
	}
	for _, sink := range n.sinks {
		if err := sink.IndexEvents(ctx, records); err != nil {
			n.logger.Error("event sink failed", slog.String("tx_hash", txHash), slog.Any("error", err))
		}
	}
	return records
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, payroll.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, payroll.ErrEmployeeAlreadyExists):
		return "employee_exists"
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		return "employee_not_found"
	case errors.Is(err, payroll.ErrInvalidPaymentInterval):
		return "invalid_interval"
	case errors.Is(err, payroll.ErrTokenNotAllowed):
		return "token_not_allowed"
	case errors.Is(err, payroll.ErrTokenAlreadyAllowed):
		return "token_already_allowed"
	case errors.Is(err, payroll.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, payroll.ErrPaymentNotDue):
		return "not_due"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return "paused"
	default:
		return "error"
	}
}

// AddEventSink registers a sink that receives every committed batch of
// events.
func (n *Node) AddEventSink(sink EventSink) {
	if sink == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = append(n.sinks, sink)
}

// SubscribeEvents streams committed events. The returned function cancels the
// subscription and closes the channel.
func (n *Node) SubscribeEvents(buffer int) (<-chan EventRecord, func()) {
	return n.hub.subscribe(buffer)
}

func (n *Node) ChainID() string { return n.chainID }

func (n *Node) VaultAddress() [20]byte { return n.vault }

func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.height
}

func (n *Node) StateRoot() common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.trie.Root()
}

func (n *Node) Nonce(addr [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Nonce(addr)
}

func (n *Node) BankBalance(account, token [20]byte) (*uint256.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bank.BalanceOf(account, token)
}

func (n *Node) IsAllowed(employer, token [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payroll.IsAllowed(employer, token)
}

func (n *Node) AllowedTokens(employer [20]byte) ([]payroll.Address, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payroll.AllowedTokens(employer)
}

func (n *Node) Employee(employer, employee [20]byte) (*payroll.Employee, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payroll.Lookup(employer, employee)
}

func (n *Node) Employees(employer [20]byte) ([]*payroll.Employee, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payroll.Employees(employer)
}

func (n *Node) ActiveEmployees(employer [20]byte) ([]*payroll.Employee, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payroll.ActiveEmployees(employer)
}

func (n *Node) PayrollBalance(employer, token [20]byte) (*uint256.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payroll.Balance(employer, token)
}

func (n *Node) VaultStatus(employer [20]byte) ([]payroll.TokenCoverage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payroll.VaultStatus(employer)
}
