package explorer

import (
	"strings"

	"gainjar/core"
	"gainjar/core/events"
)

// Label returns a short human readable summary of an indexed event.
func Label(record core.EventRecord) string {
	attrs := record.Attrs
	switch record.Type {
	case events.TypePayrollPaymentExecuted:
		return "Paid " + amountOrZero(attrs["amount"]) + " to " + short(attrs["employee"])
	case events.TypePayrollFundsDeposited:
		return "Deposited " + amountOrZero(attrs["amount"])
	case events.TypePayrollEmployeeAdded:
		return "Hired " + short(attrs["employee"])
	case events.TypePayrollEmployeeDeactivated:
		return "Deactivated " + short(attrs["employee"])
	case events.TypePayrollTokenAllowed:
		return "Allowed token " + short(attrs["token"])
	case events.TypeTransfer:
		return "Sent " + amountOrZero(attrs["amount"]) + " to " + short(attrs["to"])
	default:
		return record.Type
	}
}

func amountOrZero(amount string) string {
	if strings.TrimSpace(amount) == "" {
		return "0"
	}
	return amount
}

// short abbreviates long addresses as prefix…suffix.
func short(addr string) string {
	addr = strings.TrimSpace(addr)
	if len(addr) <= 16 {
		return addr
	}
	return addr[:10] + "…" + addr[len(addr)-6:]
}
