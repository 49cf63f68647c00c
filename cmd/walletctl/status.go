package main

import (
	"github.com/urfave/cli/v2"
)

var status = cli.Command{
	Name:   "status",
	Usage:  "returns the active wallet, network and peers of the daemon",
	Action: getStatusAction,
}

func getStatusAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	reply, err := client.getSession(ctx.Context)
	if err != nil {
		return err
	}

	printRespJSON(reply)

	return nil
}
