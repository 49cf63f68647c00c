package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/walletd/walletd/internal/core/domain"
	httpinterface "github.com/walletd/walletd/internal/interfaces/http"
)

var networkCmd = cli.Command{
	Name:  "network",
	Usage: "manage the networks known by the daemon",
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "activate the network with the given name or chain id",
			Action: setNetworkAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Usage: "name of the network",
				},
				&cli.Uint64Flag{
					Name:  "chain_id",
					Usage: "chain id of the network",
				},
			},
		},
		{
			Name:   "list",
			Usage:  "list the known networks",
			Action: listNetworksAction,
		},
		{
			Name:   "load",
			Usage:  "replace the known networks with those in a json file",
			Action: loadNetworksAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "file",
					Usage:    "path of the json file with the list of networks",
					Required: true,
				},
			},
		},
	},
}

func setNetworkAction(ctx *cli.Context) error {
	req, err := parseSetNetworkRequest(ctx.String("name"), ctx.Uint64("chain_id"))
	if err != nil {
		return err
	}

	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	reply := &httpinterface.SessionResponse{}
	if err := client.do(
		ctx.Context, http.MethodPost, "/v1/network",
		req, reply,
	); err != nil {
		return err
	}

	fmt.Printf("active network: %s\n", reply.CurrentNetwork)
	return nil
}

func parseSetNetworkRequest(
	name string, chainID uint64,
) (httpinterface.SetNetworkRequest, error) {
	if name == "" && chainID == 0 {
		return httpinterface.SetNetworkRequest{}, errors.New("either name or chain_id must be given")
	}
	if name != "" && chainID != 0 {
		return httpinterface.SetNetworkRequest{}, errors.New("name and chain_id are mutually exclusive")
	}
	if chainID > math.MaxUint32 {
		return httpinterface.SetNetworkRequest{}, fmt.Errorf(
			"chain_id must be in range [1, %d]", uint32(math.MaxUint32),
		)
	}
	return httpinterface.SetNetworkRequest{Name: name, ChainID: uint32(chainID)}, nil
}

func listNetworksAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	var networks []domain.Network
	if err := client.do(
		ctx.Context, http.MethodGet, "/v1/networks", nil, &networks,
	); err != nil {
		return err
	}

	printRespJSON(networks)
	return nil
}

func loadNetworksAction(ctx *cli.Context) error {
	networks, err := readNetworksFile(ctx.String("file"))
	if err != nil {
		return err
	}

	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	var reply []domain.Network
	if err := client.do(
		ctx.Context, http.MethodPut, "/v1/networks", networks, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func readNetworksFile(path string) ([]domain.Network, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var networks []domain.Network
	if err := json.Unmarshal(buf, &networks); err != nil {
		return nil, fmt.Errorf("invalid networks file: %w", err)
	}
	for _, n := range networks {
		if err := n.Validate(); err != nil {
			return nil, err
		}
	}
	return networks, nil
}
