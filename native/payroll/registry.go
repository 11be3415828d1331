package payroll

import (
	"github.com/holiman/uint256"

	"gainjar/core/events"
)

// AddEmployee registers employee under employer. The first payment becomes
// due one interval after registration.
func (e *Engine) AddEmployee(employer, employee Address, salary *uint256.Int, interval uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	if interval == 0 {
		return ErrInvalidPaymentInterval
	}
	if employee == (Address{}) {
		return ErrInvalidAddress
	}
	if salary == nil {
		salary = new(uint256.Int)
	}
	return e.atomic(func() error {
		_, found, err := e.loadEmployee(employer, employee)
		if err != nil {
			return err
		}
		if found {
			return ErrEmployeeAlreadyExists
		}
		record := &Employee{
			Address:         employee,
			Salary:          new(uint256.Int).Set(salary),
			LastPayment:     e.now(),
			PaymentInterval: interval,
			Active:          true,
		}
		if err := e.putEmployee(employer, record); err != nil {
			return err
		}
		if err := e.state.KVAppend(employeeIndexKey(employer), employee[:]); err != nil {
			return err
		}
		e.emit(events.EmployeeAdded{Employer: employer, Employee: employee})
		return nil
	})
}

// Deactivate stops future payments to employee. The record is retained.
func (e *Engine) Deactivate(employer, employee Address) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.atomic(func() error {
		record, found, err := e.loadEmployee(employer, employee)
		if err != nil {
			return err
		}
		if !found {
			return ErrEmployeeNotFound
		}
		if !record.Active {
			return nil
		}
		record.Active = false
		if err := e.putEmployee(employer, record); err != nil {
			return err
		}
		e.emit(events.EmployeeDeactivated{Employer: employer, Employee: employee})
		return nil
	})
}

// Lookup returns a copy of the stored employee record.
func (e *Engine) Lookup(employer, employee Address) (*Employee, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	record, found, err := e.loadEmployee(employer, employee)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrEmployeeNotFound
	}
	return record, nil
}

// Employees lists the employer's employees in registration order, including
// inactive ones.
func (e *Engine) Employees(employer Address) ([]*Employee, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	var raw [][]byte
	if err := e.state.KVGetList(employeeIndexKey(employer), &raw); err != nil {
		return nil, err
	}
	out := make([]*Employee, 0, len(raw))
	for _, entry := range raw {
		var addr Address
		copy(addr[:], entry)
		record, found, err := e.loadEmployee(employer, addr)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// ActiveEmployees lists the employees still being paid, in registration
// order.
func (e *Engine) ActiveEmployees(employer Address) ([]*Employee, error) {
	all, err := e.Employees(employer)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, record := range all {
		if record.Active {
			out = append(out, record)
		}
	}
	return out, nil
}

func (e *Engine) loadEmployee(employer, employee Address) (*Employee, bool, error) {
	var stored storedEmployee
	ok, err := e.state.KVGet(employeeKey(employer, employee), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	record, err := stored.toEmployee()
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (e *Engine) putEmployee(employer Address, record *Employee) error {
	return e.state.KVPut(employeeKey(employer, record.Address), record.toStored())
}
