package main

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/urfave/cli/v3"

	"github.com/joltkin/boxoffice/internal/lib/algo"
	"github.com/joltkin/boxoffice/internal/lib/misc"
)

func GetAssetCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "asset",
		Aliases: []string{"a"},
		Usage:   "Mint and inspect the ticket ASA a router settles",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Mint a non-divisible ticket ASA held by the creator",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "creator",
						Usage:    "Account that mints and holds the tickets. Signing keys must be present",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "total",
						Usage:    "Total number of tickets to mint",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "unit",
						Usage: "Unit name for the ASA",
						Value: "TIX",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Asset name for the ASA",
						Value: "Boxoffice Ticket",
					},
				},
				Action: CreateTicketAsset,
			},
			{
				Name:  "optin",
				Usage: "Opt an account in to the ticket ASA so it can receive a transfer",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Account to opt in. Signing keys must be present",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "asset",
						Usage:    "Asset id to opt in to",
						Required: true,
					},
				},
				Action: OptInTicketAsset,
			},
		},
	}
}

func CreateTicketAsset(ctx context.Context, cmd *cli.Command) error {
	creator := cmd.String("creator")
	sp := algo.SuggestedParams(ctx, App.logger, App.algoClient)
	// decimals 0: a ticket is a whole, non-divisible unit
	createTxn, err := transaction.MakeAssetCreateTxn(creator, nil, sp,
		cmd.Uint("total"), 0, false, creator, "", "", "",
		cmd.String("unit"), cmd.String("name"), "", "")
	if err != nil {
		return fmt.Errorf("failed to make asset create txn: %w", err)
	}
	signed, _, err := algo.SignGroupTransactions(ctx, []types.Transaction{createTxn},
		algo.SignWithAccount(nil, App.signer, creator))
	if err != nil {
		return err
	}
	result, err := algo.SendAndWaitTxns(ctx, App.logger, App.algoClient, signed)
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "minted %d tickets, asset id:%d", cmd.Uint("total"), result.AssetIndex)

	info, err := LoadDeploymentInfo()
	if err != nil {
		info = &DeploymentInfo{}
	}
	info.Network = cmd.String("network")
	info.TicketASA = result.AssetIndex
	return SaveDeploymentInfo(info)
}

func OptInTicketAsset(ctx context.Context, cmd *cli.Command) error {
	account := cmd.String("account")
	sp := algo.SuggestedParams(ctx, App.logger, App.algoClient)
	// zero-amount self-transfer is the standard ASA opt-in
	optInTxn, err := transaction.MakeAssetTransferTxn(account, account, 0, nil, sp, "", cmd.Uint("asset"))
	if err != nil {
		return fmt.Errorf("failed to make asset opt-in txn: %w", err)
	}
	signed, _, err := algo.SignGroupTransactions(ctx, []types.Transaction{optInTxn},
		algo.SignWithAccount(nil, App.signer, account))
	if err != nil {
		return err
	}
	if _, err := algo.SendAndWaitTxns(ctx, App.logger, App.algoClient, signed); err != nil {
		return err
	}
	misc.Infof(App.logger, "account %s opted in to asset %d", account, cmd.Uint("asset"))
	return nil
}
