package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Describe(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Total pack voltage.", Describe("BMS_Pack_Voltage"))
	assert.Equal("Segment/module voltage (sum of cells in segment).", Describe("SEG_3_IC_Voltage"))
	assert.Equal("Segment temperature sensor.", Describe("SEG_3_IC_Temp"))
	assert.Equal("Cell voltage.", Describe("CELL_2x7_Voltage"))
	assert.Equal("Cell imbalance / deviation (mV).", Describe("CELL_2x7_VoltageDiff"))
	assert.Equal("Cell temperature sensor.", Describe("CELL_2x7_Temp"))
	assert.Equal("Fault flag (true = fault).", Describe("CELL_2x7_isFaultDetected"))
	assert.Equal("Comms error flag (true = comms issue).", Describe("SEG_1_isCommsError"))
	assert.Equal("Discharging/balancing indicator (system-dependent).", Describe("CELL_1x1_isDischarging"))
	assert.Equal(noDescription, Describe("VCU_Throttle"))
}
