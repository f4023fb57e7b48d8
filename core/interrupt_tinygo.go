//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved interrupt state on TinyGo targets
type State = interrupt.State

// disableInterrupts masks interrupts while the timer list is edited
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}
