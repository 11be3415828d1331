package payroll

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// VaultStatus classifies how many days an escrow balance lasts at the
// employer's current payroll flow rate.
type VaultStatus uint8

const (
	VaultHealthy VaultStatus = iota
	VaultWarning
	VaultCritical
	VaultEmergency
)

const (
	secondsPerDay = 86400

	healthyDays  = 30
	warningDays  = 7
	criticalDays = 3
)

// UnboundedDays is reported as DaysRemaining when nothing flows out of the
// vault.
var UnboundedDays = new(uint256.Int).Div(new(uint256.Int).SetAllOne(), uint256.NewInt(secondsPerDay))

func (s VaultStatus) String() string {
	switch s {
	case VaultHealthy:
		return "HEALTHY"
	case VaultWarning:
		return "WARNING"
	case VaultCritical:
		return "CRITICAL"
	case VaultEmergency:
		return "EMERGENCY"
	default:
		return fmt.Sprintf("VaultStatus(%d)", uint8(s))
	}
}

// TokenCoverage describes one allowed token's balance against the
// employer's active payroll.
type TokenCoverage struct {
	Token   Address
	Balance *uint256.Int
	// FlowRate is the per-second outflow summed over active employees as
	// salary / interval, rounded down.
	FlowRate *uint256.Int
	// DailyBurn is the outflow over one day, rounded down.
	DailyBurn *uint256.Int
	// DaysRemaining is UnboundedDays when FlowRate and DailyBurn are both
	// zero because no salary is owed.
	DaysRemaining *uint256.Int
	Status        VaultStatus
	// MaxAdditionalFlowRate is the extra per-second outflow the balance can
	// absorb while staying HEALTHY.
	MaxAdditionalFlowRate *uint256.Int
	CanAddEmployee        bool
}

// VaultStatus reports coverage for every token in the employer's allowlist.
func (e *Engine) VaultStatus(employer Address) ([]TokenCoverage, error) {
	tokens, err := e.AllowedTokens(employer)
	if err != nil {
		return nil, err
	}
	employees, err := e.Employees(employer)
	if err != nil {
		return nil, err
	}
	flow := new(big.Rat)
	for _, record := range employees {
		if !record.Active || record.PaymentInterval == 0 || record.Salary.IsZero() {
			continue
		}
		rate := new(big.Rat).SetFrac(record.Salary.ToBig(), new(big.Int).SetUint64(record.PaymentInterval))
		flow.Add(flow, rate)
	}
	out := make([]TokenCoverage, 0, len(tokens))
	for _, token := range tokens {
		balance, err := e.Balance(employer, token)
		if err != nil {
			return nil, err
		}
		out = append(out, coverageFor(token, balance, flow))
	}
	return out, nil
}

func coverageFor(token Address, balance *uint256.Int, flow *big.Rat) TokenCoverage {
	daily := new(big.Rat).Mul(flow, new(big.Rat).SetInt64(secondsPerDay))
	coverage := TokenCoverage{
		Token:     token,
		Balance:   balance,
		FlowRate:  ratFloor(flow),
		DailyBurn: ratFloor(daily),
	}

	// Headroom keeps healthyDays of runway: balance / (healthyDays*day) - flow.
	budget := new(big.Rat).SetFrac(balance.ToBig(), big.NewInt(healthyDays*secondsPerDay))
	headroom := budget.Sub(budget, flow)
	if headroom.Sign() > 0 {
		coverage.MaxAdditionalFlowRate = ratFloor(headroom)
	} else {
		coverage.MaxAdditionalFlowRate = new(uint256.Int)
	}

	if flow.Sign() == 0 {
		coverage.DaysRemaining = new(uint256.Int).Set(UnboundedDays)
		coverage.Status = VaultHealthy
		coverage.CanAddEmployee = !coverage.MaxAdditionalFlowRate.IsZero()
		return coverage
	}
	days := new(big.Rat).SetInt(balance.ToBig())
	days.Quo(days, daily)
	coverage.DaysRemaining = ratFloor(days)
	coverage.Status = classify(coverage.DaysRemaining)
	coverage.CanAddEmployee = coverage.Status == VaultHealthy && !coverage.MaxAdditionalFlowRate.IsZero()
	return coverage
}

func classify(days *uint256.Int) VaultStatus {
	switch {
	case days.CmpUint64(healthyDays) >= 0:
		return VaultHealthy
	case days.CmpUint64(warningDays) >= 0:
		return VaultWarning
	case days.CmpUint64(criticalDays) >= 0:
		return VaultCritical
	default:
		return VaultEmergency
	}
}

// ratFloor truncates a non-negative rational, saturating at the uint256 range.
func ratFloor(r *big.Rat) *uint256.Int {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	out, overflow := uint256.FromBig(q)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return out
}
