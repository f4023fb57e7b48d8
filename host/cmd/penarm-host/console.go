package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/go-gl/mathgl/mgl64"

	"penarm/host/cmdgen"
	"penarm/host/config"
	"penarm/protocol"
)

func runConsole(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	m, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	arm := cfg.Arm.Arm()
	shell := ishell.New()
	shell.Println("penarm console on " + cfg.Port)
	shell.ShowPrompt(true)

	go func() {
		for reply := range m.Replies() {
			shell.Println("< " + reply)
		}
	}()

	send := func(c *ishell.Context, line string) {
		if err := m.SendLine(line); err != nil {
			c.Err(err)
		}
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "send",
		Help: "send <line> - send a raw command line",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(errors.New("usage: send <line>"))
				return
			}
			send(c, strings.Join(c.Args, " "))
		},
	})

	literals := map[string]string{
		"up":    protocol.CmdPenUp,
		"down":  protocol.CmdPenDown,
		"start": protocol.CmdStart,
		"end":   protocol.CmdEnd,
	}
	for name, line := range literals {
		shell.AddCmd(&ishell.Cmd{
			Name: name,
			Help: "send " + line,
			Func: func(c *ishell.Context) {
				send(c, line)
			},
		})
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "move",
		Help: "move <shoulder> <elbow> - move to joint angles in degrees",
		Func: func(c *ishell.Context) {
			a, b, err := twoFloats(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			send(c, fmt.Sprintf("(%g, %g)", a, b))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "goto",
		Help: "goto <x> <y> - move the pen to a point using the arm geometry",
		Func: func(c *ishell.Context) {
			x, y, err := twoFloats(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			angles, err := arm.Solve(mgl64.Vec2{x, y})
			if err != nil {
				c.Err(err)
				return
			}
			line := cmdgen.FormatMove(angles)
			c.Println("> " + line)
			send(c, line)
		},
	})

	shell.Start()
	return nil
}

func twoFloats(args []string) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("expected two numbers")
	}
	a, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
