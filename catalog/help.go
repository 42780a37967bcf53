package catalog

import "strings"

const noDescription = "No description added yet."

type signalHelp struct {
	key         string
	description string
}

// Exact names first, then suffixes (keys starting with '_').
// Longer suffixes come before the shorter ones they end with.
var signalHelpTable = []signalHelp{
	{"BMS_Pack_Voltage", "Total pack voltage."},
	{"BMS_Pack_Current", "Pack current (sign depends on your system)."},
	{"_IC_Voltage", "Segment/module voltage (sum of cells in segment)."},
	{"_IC_Temp", "Segment temperature sensor."},
	{"_isFaultDetected", "Fault flag (true = fault)."},
	{"_isCommsError", "Comms error flag (true = comms issue)."},
	{"_VoltageDiff", "Cell imbalance / deviation (mV)."},
	{"_Voltage", "Cell voltage."},
	{"_Temp", "Cell temperature sensor."},
	{"_isDischarging", "Discharging/balancing indicator (system-dependent)."},
}

// Describe returns a human readable description of the named signal.
func Describe(signalName string) string {
	for _, h := range signalHelpTable {
		if h.key == signalName {
			return h.description
		}
	}

	for _, h := range signalHelpTable {
		if strings.HasPrefix(h.key, "_") && strings.HasSuffix(signalName, h.key) {
			return h.description
		}
	}

	return noDescription
}
