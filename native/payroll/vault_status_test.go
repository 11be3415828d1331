package payroll_test

import (
	"testing"

	"gainjar/native/payroll"
)

const day = 86400

func vaultStatus(t *testing.T, engine *payroll.Engine) payroll.TokenCoverage {
	t.Helper()
	status, err := engine.VaultStatus(employerA)
	if err != nil {
		t.Fatalf("vault status: %v", err)
	}
	if len(status) != 1 {
		t.Fatalf("expected one token, got %d", len(status))
	}
	return status[0]
}

func TestVaultStatusClassifiesByDaysRemaining(t *testing.T) {
	cases := []struct {
		balance  uint64
		salary   uint64
		interval uint64
		days     uint64
		want     payroll.VaultStatus
	}{
		{balance: 0, salary: 100, interval: day, days: 0, want: payroll.VaultEmergency},
		{balance: 1, salary: 100, interval: day, days: 0, want: payroll.VaultEmergency},
		{balance: 299, salary: 100, interval: day, days: 2, want: payroll.VaultEmergency},
		{balance: 300, salary: 100, interval: day, days: 3, want: payroll.VaultCritical},
		{balance: 500, salary: 100, interval: day, days: 5, want: payroll.VaultCritical},
		{balance: 700, salary: 100, interval: day, days: 7, want: payroll.VaultWarning},
		{balance: 2999, salary: 100, interval: day, days: 29, want: payroll.VaultWarning},
		{balance: 3000, salary: 100, interval: day, days: 30, want: payroll.VaultHealthy},
		{balance: 150, salary: 100, interval: 30 * day, days: 45, want: payroll.VaultHealthy},
	}
	for _, tc := range cases {
		engine, _, _, _ := fundedEngine(t, tc.balance, tc.salary, tc.interval)
		cov := vaultStatus(t, engine)
		if cov.DaysRemaining.Uint64() != tc.days {
			t.Fatalf("balance %d, %d per %ds: expected %d days, got %s", tc.balance, tc.salary, tc.interval, tc.days, cov.DaysRemaining.Dec())
		}
		if cov.Status != tc.want {
			t.Fatalf("balance %d, %d per %ds: expected %s, got %s", tc.balance, tc.salary, tc.interval, tc.want, cov.Status)
		}
	}
}

func TestVaultStatusWeighsSalaryByInterval(t *testing.T) {
	// Alice draws 100 a day; bob's 700 a week adds another 100 a day.
	engine, _, _, _ := fundedEngine(t, 1000, 100, day)
	if err := engine.AddEmployee(employerA, bob, u(700), 7*day); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	cov := vaultStatus(t, engine)
	if cov.DailyBurn.Uint64() != 200 {
		t.Fatalf("expected daily burn 200, got %s", cov.DailyBurn.Dec())
	}
	if cov.DaysRemaining.Uint64() != 5 || cov.Status != payroll.VaultCritical {
		t.Fatalf("expected 5 days CRITICAL, got %s days %s", cov.DaysRemaining.Dec(), cov.Status)
	}

	// The same 700 paid monthly barely moves the burn rate.
	engine, _, _, _ = fundedEngine(t, 1000, 100, day)
	if err := engine.AddEmployee(employerA, bob, u(700), 30*day); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	cov = vaultStatus(t, engine)
	if cov.DailyBurn.Uint64() != 123 {
		t.Fatalf("expected daily burn 123, got %s", cov.DailyBurn.Dec())
	}
	if cov.DaysRemaining.Uint64() != 8 || cov.Status != payroll.VaultWarning {
		t.Fatalf("expected 8 days WARNING, got %s days %s", cov.DaysRemaining.Dec(), cov.Status)
	}
}

func TestVaultStatusHeadroom(t *testing.T) {
	// One unit per second against sixty days of balance.
	engine, _, _, _ := fundedEngine(t, 60*day, day, day)
	cov := vaultStatus(t, engine)
	if cov.FlowRate.Uint64() != 1 {
		t.Fatalf("expected flow rate 1, got %s", cov.FlowRate.Dec())
	}
	if cov.DaysRemaining.Uint64() != 60 || cov.Status != payroll.VaultHealthy {
		t.Fatalf("expected 60 days HEALTHY, got %s days %s", cov.DaysRemaining.Dec(), cov.Status)
	}
	if cov.MaxAdditionalFlowRate.Uint64() != 1 || !cov.CanAddEmployee {
		t.Fatalf("expected headroom 1, got %s (can add %v)", cov.MaxAdditionalFlowRate.Dec(), cov.CanAddEmployee)
	}

	engine, _, _, _ = fundedEngine(t, 500, 100, day)
	cov = vaultStatus(t, engine)
	if !cov.MaxAdditionalFlowRate.IsZero() || cov.CanAddEmployee {
		t.Fatalf("critical vault must report no headroom, got %s", cov.MaxAdditionalFlowRate.Dec())
	}
}

func TestVaultStatusIgnoresInactiveEmployees(t *testing.T) {
	engine, _, _, _ := fundedEngine(t, 0, 60, 30)
	if err := engine.Deactivate(employerA, alice); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	cov := vaultStatus(t, engine)
	if cov.Status != payroll.VaultHealthy {
		t.Fatalf("expected HEALTHY with no active payroll, got %s", cov.Status)
	}
	if !cov.FlowRate.IsZero() || !cov.DailyBurn.IsZero() {
		t.Fatalf("expected no outflow, got %s/s", cov.FlowRate.Dec())
	}
	if !cov.DaysRemaining.Eq(payroll.UnboundedDays) {
		t.Fatalf("expected unbounded days, got %s", cov.DaysRemaining.Dec())
	}
}

func TestParseTriggerPolicy(t *testing.T) {
	for raw, want := range map[string]payroll.TriggerPolicy{
		"employer":             payroll.TriggerEmployerOnly,
		"":                     payroll.TriggerEmployerOrEmployee,
		"EMPLOYER_OR_EMPLOYEE": payroll.TriggerEmployerOrEmployee,
		"anyone":               payroll.TriggerAnyone,
	} {
		got, err := payroll.ParseTriggerPolicy(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := payroll.ParseTriggerPolicy("everyone-but-me"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
