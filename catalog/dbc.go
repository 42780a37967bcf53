package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/squadracorsepolito/acmelib"
)

var _ Catalog = (*DBC)(nil)

type dbcMessage struct {
	def    *MessageDef
	decode func([]byte) []*acmelib.SignalDecoding
}

// DBC is a [Catalog] backed by the messages of an acmelib bus.
type DBC struct {
	messages map[uint32]*dbcMessage
	signals  []SignalDef
	units    map[string]string
}

// Load imports the DBC file at path.
func Load(path string) (*DBC, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal database: %w", err)
	}
	defer file.Close()

	busName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	bus, err := acmelib.ImportDBCFile(busName, file)
	if err != nil {
		return nil, fmt.Errorf("failed to import signal database %q: %w", path, err)
	}

	messages := []*acmelib.Message{}
	for _, nodeInt := range bus.NodeInterfaces() {
		messages = append(messages, nodeInt.SentMessages()...)
	}

	return FromMessages(messages)
}

// FromMessages builds a [DBC] catalog from already loaded messages.
// Messages sharing a CAN id are kept once.
func FromMessages(messages []*acmelib.Message) (*DBC, error) {
	c := &DBC{
		messages: make(map[uint32]*dbcMessage, len(messages)),
		units:    make(map[string]string),
	}

	for _, msg := range messages {
		canID := uint32(msg.GetCANID())
		if _, ok := c.messages[canID]; ok {
			continue
		}

		def := &MessageDef{
			ID:       canID,
			Name:     msg.Name(),
			SizeByte: msg.SizeByte(),
		}

		for _, sig := range msg.Signals() {
			sigName := sig.Name()
			if _, ok := c.units[sigName]; ok {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateSignal, sigName)
			}

			sigDef := SignalDef{
				Name:      sigName,
				Unit:      signalUnit(sig),
				MessageID: canID,
			}

			def.Signals = append(def.Signals, sigDef)
			c.signals = append(c.signals, sigDef)
			c.units[sigName] = sigDef.Unit
		}

		c.messages[canID] = &dbcMessage{
			def:    def,
			decode: msg.SignalLayout().Decode,
		}
	}

	return c, nil
}

func signalUnit(sig acmelib.Signal) string {
	stdSig, err := sig.ToStandard()
	if err != nil {
		return ""
	}

	unit := stdSig.Unit()
	if unit == nil {
		return ""
	}

	return unit.Symbol()
}

func (c *DBC) Resolve(id uint32) (*MessageDef, bool) {
	msg, ok := c.messages[id]
	if !ok {
		return nil, false
	}
	return msg.def, true
}

func (c *DBC) Decode(id uint32, payload []byte) (values []Value, err error) {
	msg, ok := c.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%03X", ErrUnknownID, id)
	}

	if len(payload) < msg.def.SizeByte {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrDecode, msg.def.Name, msg.def.SizeByte, len(payload))
	}

	// The signal layout indexes the payload without bound checks
	defer func() {
		if r := recover(); r != nil {
			values = nil
			err = fmt.Errorf("%w: %s: %v", ErrDecode, msg.def.Name, r)
		}
	}()

	decodings := msg.decode(payload)

	values = make([]Value, 0, len(decodings))
	for _, dec := range decodings {
		values = append(values, Value{
			Name:  dec.Signal.Name(),
			Value: decodingValue(dec),
		})
	}

	return values, nil
}

func decodingValue(dec *acmelib.SignalDecoding) float64 {
	switch dec.ValueType {
	case acmelib.SignalValueTypeFlag:
		if dec.ValueAsFlag() {
			return 1
		}
		return 0

	case acmelib.SignalValueTypeInt:
		return float64(dec.ValueAsInt())

	case acmelib.SignalValueTypeUint:
		return float64(dec.ValueAsUint())

	case acmelib.SignalValueTypeFloat:
		return dec.ValueAsFloat()
	}

	return float64(dec.RawValue)
}

func (c *DBC) MessageName(id uint32) (string, bool) {
	msg, ok := c.messages[id]
	if !ok {
		return "", false
	}
	return msg.def.Name, true
}

func (c *DBC) Signals() []SignalDef {
	return slices.Clone(c.signals)
}

// Unit returns the unit of the named signal.
func (c *DBC) Unit(signalName string) (string, bool) {
	unit, ok := c.units[signalName]
	return unit, ok
}
