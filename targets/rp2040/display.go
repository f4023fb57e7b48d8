//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers/hd44780i2c"
)

const (
	lcdAddress = 0x27
	lcdColumns = 16
	lcdRows    = 2
)

// statusDisplay shows the last status string on a 16x2 I2C character LCD
type statusDisplay struct {
	device *hd44780i2c.Device
	last   string
}

// newStatusDisplay configures I2C0 on GP4/GP5 and the LCD behind it.
// It returns nil when no display answers.
func newStatusDisplay() *statusDisplay {
	err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.GP4,
		SCL:       machine.GP5,
	})
	if err != nil {
		DebugPrintln("[LCD] i2c: " + err.Error())
		return nil
	}

	lcd := hd44780i2c.New(machine.I2C0, lcdAddress)
	if err := lcd.Configure(hd44780i2c.Config{Width: lcdColumns, Height: lcdRows}); err != nil {
		DebugPrintln("[LCD] configure: " + err.Error())
		return nil
	}

	d := &statusDisplay{device: &lcd}
	d.show("penarm", "Ready")
	return d
}

// Status implements standalone.StatusSink. Repeated messages are skipped,
// an I2C write takes longer than a step.
func (d *statusDisplay) Status(msg string) {
	if msg == d.last {
		return
	}
	d.last = msg
	d.show("penarm", msg)
}

func (d *statusDisplay) show(line1, line2 string) {
	d.device.ClearDisplay()
	d.device.SetCursor(0, 0)
	d.device.Print(truncate(line1))
	d.device.SetCursor(0, 1)
	d.device.Print(truncate(line2))
}

func truncate(s string) []byte {
	if len(s) > lcdColumns {
		s = s[:lcdColumns]
	}
	return []byte(s)
}
