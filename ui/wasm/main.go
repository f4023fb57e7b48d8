//go:build js && wasm
// +build js,wasm

package main

import (
	"strings"
	"syscall/js"

	"github.com/go-gl/mathgl/mgl64"

	"penarm/host/cmdgen"
	"penarm/host/kinematics"
	"penarm/protocol"
	"penarm/standalone/command"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("penarmWasm", js.ValueOf(map[string]interface{}{
		"parseCommand": js.FuncOf(parseCommandWrapper),
		"solve":        js.FuncOf(solveWrapper),
		"forward":      js.FuncOf(forwardWrapper),
		"generate":     js.FuncOf(generateWrapper),
		"lineMax":      protocol.LineMax,
	}))

	// Keep the program running
	select {}
}

// parseCommandWrapper classifies one command line the way the firmware does
// Args: line (string)
// Returns: {kind: string, a: number, b: number, error: string}
func parseCommandWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("missing line argument")
	}

	cmd := command.ParseLine(args[0].String())
	result := map[string]interface{}{
		"kind": cmd.Kind.String(),
	}
	if cmd.Kind == command.MoveTo {
		result["a"] = cmd.A
		result["b"] = cmd.B
	}
	if cmd.Kind == command.Invalid {
		result["error"] = cmd.Reason.String()
	}
	return js.ValueOf(result)
}

// solveWrapper runs inverse kinematics for one point
// Args: x, y, l1, l2 (number)
// Returns: {shoulder: number, elbow: number, command: string, error: string}
func solveWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return makeError("expected x, y, l1, l2")
	}

	arm := kinematics.Arm{L1: args[2].Float(), L2: args[3].Float()}
	angles, err := arm.Solve(mgl64.Vec2{args[0].Float(), args[1].Float()})
	if err != nil {
		return makeError(err.Error())
	}
	return js.ValueOf(map[string]interface{}{
		"shoulder": angles.Shoulder,
		"elbow":    angles.Elbow,
		"command":  cmdgen.FormatMove(angles),
	})
}

// forwardWrapper returns the pen position for a pair of joint angles
// Args: shoulder, elbow, l1, l2 (number)
// Returns: {x: number, y: number}
func forwardWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return makeError("expected shoulder, elbow, l1, l2")
	}

	arm := kinematics.Arm{L1: args[2].Float(), L2: args[3].Float()}
	p := arm.Forward(kinematics.Angles{Shoulder: args[0].Float(), Elbow: args[1].Float()})
	return js.ValueOf(map[string]interface{}{
		"x": p.X(),
		"y": p.Y(),
	})
}

// generateWrapper turns a points file into a command file
// Args: points (string), l1, l2 (number)
// Returns: {commands: string[], points: number, skipped: number, error: string}
func generateWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeError("expected points, l1, l2")
	}

	points, err := cmdgen.ReadPoints(strings.NewReader(args[0].String()))
	if err != nil {
		return makeError(err.Error())
	}

	arm := kinematics.Arm{L1: args[1].Float(), L2: args[2].Float()}
	cmds, report, err := cmdgen.Generate(points, arm, nil)
	if err != nil {
		return makeError(err.Error())
	}

	jsCmds := make([]interface{}, len(cmds))
	for i, c := range cmds {
		jsCmds[i] = c
	}
	return js.ValueOf(map[string]interface{}{
		"commands": jsCmds,
		"points":   report.Points,
		"skipped":  report.Skipped,
		"toggles":  report.Toggles,
	})
}

func makeError(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}
