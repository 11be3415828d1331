package payroll

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Address identifies employers, employees and tokens.
type Address = [20]byte

// Employee is the payroll record kept for one (employer, employee) pair.
type Employee struct {
	Address         Address
	Salary          *uint256.Int
	LastPayment     uint64
	PaymentInterval uint64
	Active          bool
}

// Clone returns a deep copy of the record.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Salary != nil {
		clone.Salary = new(uint256.Int).Set(e.Salary)
	} else {
		clone.Salary = new(uint256.Int)
	}
	return &clone
}

// NextPaymentAt reports the earliest timestamp at which the next payment may
// be executed. The value saturates instead of wrapping.
func (e *Employee) NextPaymentAt() uint64 {
	if e == nil {
		return 0
	}
	if e.LastPayment > math.MaxUint64-e.PaymentInterval {
		return math.MaxUint64
	}
	return e.LastPayment + e.PaymentInterval
}

// Due reports whether a full payment interval has elapsed at now.
func (e *Employee) Due(now uint64) bool {
	if e == nil || now < e.LastPayment {
		return false
	}
	return now-e.LastPayment >= e.PaymentInterval
}

// storedEmployee is the RLP layout of an Employee.
type storedEmployee struct {
	Address         [20]byte
	Salary          *big.Int
	LastPayment     uint64
	PaymentInterval uint64
	Active          bool
}

func (e *Employee) toStored() *storedEmployee {
	salary := new(big.Int)
	if e.Salary != nil {
		salary = e.Salary.ToBig()
	}
	return &storedEmployee{
		Address:         e.Address,
		Salary:          salary,
		LastPayment:     e.LastPayment,
		PaymentInterval: e.PaymentInterval,
		Active:          e.Active,
	}
}

func (s *storedEmployee) toEmployee() (*Employee, error) {
	salary := new(uint256.Int)
	if s.Salary != nil {
		var overflow bool
		salary, overflow = uint256.FromBig(s.Salary)
		if overflow {
			return nil, fmt.Errorf("payroll: stored salary overflows 256 bits")
		}
	}
	return &Employee{
		Address:         s.Address,
		Salary:          salary,
		LastPayment:     s.LastPayment,
		PaymentInterval: s.PaymentInterval,
		Active:          s.Active,
	}, nil
}

// TriggerPolicy decides who besides the employer may trigger a payment.
type TriggerPolicy uint8

const (
	// TriggerEmployerOnly restricts ExecutePayment to the employer.
	TriggerEmployerOnly TriggerPolicy = iota
	// TriggerEmployerOrEmployee additionally lets the employee collect their
	// own salary once due.
	TriggerEmployerOrEmployee
	// TriggerAnyone lets any account act as a keeper.
	TriggerAnyone
)

// ParseTriggerPolicy maps the configuration spelling of a policy.
func ParseTriggerPolicy(raw string) (TriggerPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "employer", "employer_only":
		return TriggerEmployerOnly, nil
	case "", "employer_or_employee":
		return TriggerEmployerOrEmployee, nil
	case "anyone", "keeper":
		return TriggerAnyone, nil
	default:
		return 0, fmt.Errorf("payroll: unknown trigger policy %q", raw)
	}
}

func (p TriggerPolicy) String() string {
	switch p {
	case TriggerEmployerOnly:
		return "employer"
	case TriggerEmployerOrEmployee:
		return "employer_or_employee"
	case TriggerAnyone:
		return "anyone"
	default:
		return fmt.Sprintf("TriggerPolicy(%d)", uint8(p))
	}
}

// Permits reports whether caller may trigger the payment of employee by
// employer.
func (p TriggerPolicy) Permits(caller, employer, employee Address) bool {
	if caller == employer {
		return true
	}
	switch p {
	case TriggerEmployerOrEmployee:
		return caller == employee
	case TriggerAnyone:
		return true
	default:
		return false
	}
}
