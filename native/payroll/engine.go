package payroll

import (
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"gainjar/core/events"
	gjstate "gainjar/core/state"
	"gainjar/native/common"
)

const moduleName = "payroll"

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
	Checkpoint() gjstate.Checkpoint
	Revert(cp gjstate.Checkpoint)
}

// Transferer moves tokens out of custody to a recipient. Implementations are
// outside the engine's control and may call back into it before returning.
type Transferer interface {
	Transfer(token, employer, to Address, amount *uint256.Int) error
}

// TransferFunc adapts a plain function to the Transferer interface.
type TransferFunc func(token, employer, to Address, amount *uint256.Int) error

// Transfer calls f.
func (f TransferFunc) Transfer(token, employer, to Address, amount *uint256.Int) error {
	return f(token, employer, to, amount)
}

// Engine implements the payroll escrow on top of the shared state trie.
// Balances and employee records are partitioned by employer. The engine is
// not safe for concurrent use; the hosting node serialises calls.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	transfer Transferer
	pauses   common.PauseView
	policy   TriggerPolicy
	nowFn    func() uint64

	depth   int
	pending []events.Event
}

// NewEngine constructs an engine bound to the provided state backend.
func NewEngine(state engineState) *Engine {
	return &Engine{
		state:   state,
		emitter: events.NoopEmitter{},
		policy:  TriggerEmployerOrEmployee,
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState swaps the state backend.
func (e *Engine) SetState(state engineState) {
	if e == nil {
		return
	}
	e.state = state
}

// SetEmitter configures the event sink. Nil restores the no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetTransferer configures the collaborator used to pay employees.
func (e *Engine) SetTransferer(t Transferer) {
	if e == nil {
		return
	}
	e.transfer = t
}

// SetPauses wires the module pause view.
func (e *Engine) SetPauses(p common.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetTriggerPolicy selects who may trigger payments.
func (e *Engine) SetTriggerPolicy(policy TriggerPolicy) {
	if e == nil {
		return
	}
	e.policy = policy
}

// TriggerPolicy returns the active trigger policy.
func (e *Engine) TriggerPolicy() TriggerPolicy {
	if e == nil {
		return TriggerEmployerOnly
	}
	return e.policy
}

// SetNowFunc overrides the clock, primarily for tests.
func (e *Engine) SetNowFunc(now func() uint64) {
	if e == nil || now == nil {
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	if e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func (e *Engine) guard() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return common.Guard(e.pauses, moduleName)
}

// atomic runs fn as one all-or-nothing unit. Nested calls share the outer
// journal; events reach the emitter only once the outermost call succeeds.
func (e *Engine) atomic(fn func() error) error {
	cp := e.state.Checkpoint()
	mark := len(e.pending)
	e.depth++
	err := e.run(fn)
	e.depth--
	if err != nil {
		e.state.Revert(cp)
		e.pending = e.pending[:mark]
		return err
	}
	if e.depth == 0 {
		e.flush()
	}
	return nil
}

func (e *Engine) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrAborted, r)
		}
	}()
	return fn()
}

func (e *Engine) emit(evt events.Event) {
	if evt == nil {
		return
	}
	e.pending = append(e.pending, evt)
}

func (e *Engine) flush() {
	pending := e.pending
	e.pending = nil
	for _, evt := range pending {
		e.emitter.Emit(evt)
	}
}

func (e *Engine) loadAmount(key []byte) (*uint256.Int, error) {
	var stored big.Int
	ok, err := e.state.KVGet(key, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	amount, overflow := uint256.FromBig(&stored)
	if overflow {
		return nil, fmt.Errorf("payroll: stored amount overflows 256 bits")
	}
	return amount, nil
}

func (e *Engine) storeAmount(key []byte, amount *uint256.Int) error {
	return e.state.KVPut(key, amount.ToBig())
}
