package payroll

var (
	allowlistPrefix     = []byte("payroll/allowlist/")
	allowedPrefix       = []byte("payroll/allowed/")
	employeePrefix      = []byte("payroll/employee/")
	employeeIndexPrefix = []byte("payroll/employees/")
	balancePrefix       = []byte("payroll/balance/")
)

func prefixed(prefix []byte, parts ...Address) []byte {
	key := make([]byte, len(prefix), len(prefix)+len(parts)*20)
	copy(key, prefix)
	for _, part := range parts {
		key = append(key, part[:]...)
	}
	return key
}

func allowlistKey(employer Address) []byte { return prefixed(allowlistPrefix, employer) }

func allowedKey(employer, token Address) []byte {
	return prefixed(allowedPrefix, employer, token)
}

func employeeKey(employer, employee Address) []byte {
	return prefixed(employeePrefix, employer, employee)
}

func employeeIndexKey(employer Address) []byte { return prefixed(employeeIndexPrefix, employer) }

func balanceKey(employer, token Address) []byte {
	return prefixed(balancePrefix, employer, token)
}

// EmployeeStorageKey returns the raw state key of an employee record.
func EmployeeStorageKey(employer, employee Address) []byte {
	return employeeKey(employer, employee)
}

// BalanceStorageKey returns the raw state key of an employer's token balance.
func BalanceStorageKey(employer, token Address) []byte {
	return balanceKey(employer, token)
}
