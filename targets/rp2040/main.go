//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"penarm/core"
	"penarm/protocol"
	"penarm/standalone"
	"penarm/standalone/config"
)

var (
	// Filled by usbReaderLoop, drained by the manager on every Tick
	inputBuffer *protocol.FifoBuffer

	// Debug counters
	msgerrors uint32
	panics    uint32
)

func main() {
	// Disable the watchdog so a previous configuration cannot reset us
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	InitClock()
	core.SetDebugWriter(DebugPrintln)

	cfg := config.DefaultArmConfig()

	servos, err := setupServos(cfg)
	if err != nil {
		DebugPrintln("[MAIN] servos: " + err.Error())
		blinkError()
	}

	opts := standalone.Options{
		Servos: servos,
		Clock:  core.SystemClock{},
	}
	if cfg.Display {
		if lcd := newStatusDisplay(); lcd != nil {
			opts.Status = lcd
		}
	}

	inputBuffer = protocol.NewFifoBuffer(256)
	opts.Input = inputBuffer

	manager, err := standalone.NewManagerWithConfig(cfg, opts)
	if err != nil {
		DebugPrintln("[MAIN] manager: " + err.Error())
		blinkError()
	}

	go usbReaderLoop()

	if err := manager.Start(); err != nil {
		DebugPrintln("[MAIN] start: " + err.Error())
	}

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					DebugPrintln("[MAIN] recovered panic")
					core.DumpTraceRing()
				}
			}()

			UpdateSystemTime()
			manager.Tick()

			if out := manager.GetOutput(); len(out) > 0 {
				if _, err := USBWriteBytes(out); err != nil {
					msgerrors++
				}
			}
		}()

		// Yield to the USB reader
		time.Sleep(100 * time.Microsecond)
	}
}

// usbReaderLoop moves bytes from USB into inputBuffer
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(1 * time.Millisecond)
				continue
			}

			// Byte buffer full: hold the byte until the manager drains it
			for inputBuffer.Write([]byte{data}) == 0 {
				time.Sleep(1 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// blinkError flashes the LED forever after a fatal setup error
func blinkError() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
