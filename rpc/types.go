package rpc

import (
	"gainjar/core"
	"gainjar/crypto"
	"gainjar/native/payroll"
)

type SubmitResult struct {
	TxHash    string        `json:"txHash"`
	Height    uint64        `json:"height"`
	StateRoot string        `json:"stateRoot"`
	Events    []EventResult `json:"events"`
}

type EmployeeResult struct {
	Address         string `json:"address"`
	Salary          string `json:"salary"`
	LastPayment     uint64 `json:"lastPayment"`
	PaymentInterval uint64 `json:"paymentInterval"`
	NextPaymentAt   uint64 `json:"nextPaymentAt"`
	Active          bool   `json:"active"`
}

type CoverageResult struct {
	Token                 string `json:"token"`
	Balance               string `json:"balance"`
	FlowRate              string `json:"flowRate"`
	DailyBurn             string `json:"dailyBurn"`
	DaysRemaining         string `json:"daysRemaining"`
	Status                string `json:"status"`
	CanAddEmployee        bool   `json:"canAddEmployee"`
	MaxAdditionalFlowRate string `json:"maxAdditionalFlowRate"`
}

type BalanceResult struct {
	Account string `json:"account"`
	Token   string `json:"token"`
	Amount  string `json:"amount"`
}

type EventResult struct {
	Height     uint64            `json:"height"`
	TxHash     string            `json:"txHash"`
	Index      int               `json:"index"`
	Timestamp  int64             `json:"timestamp"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Summary    string            `json:"summary,omitempty"`
}

func employeeResult(emp *payroll.Employee) EmployeeResult {
	return EmployeeResult{
		Address:         crypto.FormatAddress(emp.Address),
		Salary:          emp.Salary.Dec(),
		LastPayment:     emp.LastPayment,
		PaymentInterval: emp.PaymentInterval,
		NextPaymentAt:   emp.NextPaymentAt(),
		Active:          emp.Active,
	}
}

func coverageResult(cov payroll.TokenCoverage) CoverageResult {
	return CoverageResult{
		Token:                 crypto.FormatAddress(cov.Token),
		Balance:               cov.Balance.Dec(),
		FlowRate:              cov.FlowRate.Dec(),
		DailyBurn:             cov.DailyBurn.Dec(),
		DaysRemaining:         cov.DaysRemaining.Dec(),
		Status:                cov.Status.String(),
		CanAddEmployee:        cov.CanAddEmployee,
		MaxAdditionalFlowRate: cov.MaxAdditionalFlowRate.Dec(),
	}
}

func eventResult(record core.EventRecord, summary string) EventResult {
	ts := int64(0)
	if !record.Timestamp.IsZero() {
		ts = record.Timestamp.UTC().Unix()
	}
	return EventResult{
		Height:     record.Height,
		TxHash:     record.TxHash,
		Index:      record.Index,
		Timestamp:  ts,
		Type:       record.Type,
		Attributes: record.Attrs,
		Summary:    summary,
	}
}

