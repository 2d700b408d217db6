package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"

	"github.com/joltkin/boxoffice/internal/lib/algo"
	"github.com/joltkin/boxoffice/internal/lib/misc"
	"github.com/joltkin/boxoffice/internal/lib/router"
)

func GetRouterCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "router",
		Aliases: []string{"r"},
		Usage:   "Deploy and settle against a royalty router contract",
		Commands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "Deploy a new router instance, prompting for the payout configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "creator",
						Usage:    "Account that creates the application. Signing keys must be present",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "asset",
						Usage:    "Asset id of the ticket ASA this router settles",
						Required: true,
					},
				},
				Action: DeployRouter,
			},
			{
				Name:   "info",
				Usage:  "Display the deployed router's configuration and escrow balance",
				Action: RouterInfo,
			},
			{
				Name:  "buy",
				Usage: "Submit a primary sale group: payment to escrow, ticket to buyer, split to payees",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "buyer",
						Usage:    "Buyer account. Signing keys must be present",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "price",
						Usage:    "Sale price in microAlgo",
						Required: true,
					},
				},
				Action: BuyTicket,
			},
			{
				Name:  "resale",
				Usage: "Submit a secondary sale group: royalty to the first payee, remainder to the holder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "buyer",
						Usage:    "Buyer account. Signing keys must be present",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "holder",
						Usage:    "Current ticket holder account. Signing keys must be present",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "price",
						Usage:    "Resale price in microAlgo",
						Required: true,
					},
				},
				Action: ResaleTicket,
			},
		},
	}
}

func DeployRouter(ctx context.Context, cmd *cli.Command) error {
	creator := cmd.String("creator")
	cfg := &router.Config{TicketAssetID: cmd.Uint("asset")}

	for i := range cfg.Payees {
		addr, err := getAlgoAccount(fmt.Sprintf("Enter payout address %d", i+1), "")
		if err != nil {
			return err
		}
		cfg.Payees[i], _ = types.DecodeAddress(addr)
		weight, err := getInt(fmt.Sprintf("Enter split for payee %d (basis points, all three must total 10000)", i+1), 0, 0, 10000)
		if err != nil {
			return err
		}
		cfg.SplitBps[i] = uint64(weight)
	}
	royalty, err := getInt("Enter the resale royalty paid to payee 1 (basis points)", 500, 0, 10000)
	if err != nil {
		return err
	}
	cfg.RoyaltyBps = uint64(royalty)
	seller, err := getAlgoAccount("Enter the primary seller (treasury) address", creator)
	if err != nil {
		return err
	}
	cfg.PrimarySeller, _ = types.DecodeAddress(seller)
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Print(cfg.String())
	if result, _ := yesNo("Deploy a router with this configuration"); result != "y" {
		return nil
	}

	appID, err := App.routerClient.Deploy(ctx, cfg, creator)
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "fund the escrow with at least 0.1 ALGO before settling sales, escrow:%s",
		crypto.GetApplicationAddress(appID).String())

	info, err := LoadDeploymentInfo()
	if err != nil {
		info = &DeploymentInfo{}
	}
	info.Network = cmd.String("network")
	info.RouterAppID = appID
	info.TicketASA = cfg.TicketAssetID
	return SaveDeploymentInfo(info)
}

func RouterInfo(ctx context.Context, cmd *cli.Command) error {
	if err := App.requireRouter(ctx); err != nil {
		return err
	}
	r := App.routerClient.Router()
	fmt.Print(r.Config().String())
	escrow := r.EscrowAddress().String()
	account, err := algo.GetBareAccount(ctx, App.algoClient, escrow)
	if err != nil {
		return err
	}
	fmt.Printf("Escrow: %s (%s ALGO, min %s)\n", escrow,
		algo.FormattedAlgoAmount(account.Amount), algo.FormattedAlgoAmount(account.MinBalance))
	if version, err := algo.GetVersionString(ctx, App.algoClient); err == nil {
		fmt.Printf("Node: %s\n", version)
	}
	return nil
}

func BuyTicket(ctx context.Context, cmd *cli.Command) error {
	if err := App.requireRouter(ctx); err != nil {
		return err
	}
	txids, err := App.routerClient.Buy(ctx, cmd.String("buyer"), cmd.Uint("price"))
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "primary sale settled, group txids:%v", txids)
	return nil
}

func ResaleTicket(ctx context.Context, cmd *cli.Command) error {
	if err := App.requireRouter(ctx); err != nil {
		return err
	}
	txids, err := App.routerClient.Resale(ctx, cmd.String("buyer"), cmd.String("holder"), cmd.Uint("price"))
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "resale settled, group txids:%v", txids)
	return nil
}

func getInt(prompt string, defVal int, minVal int, maxVal int) (int, error) {
	validate := func(input string) error {
		value, err := strconv.Atoi(input)
		if err != nil {
			return err
		}
		if value < minVal || value > maxVal {
			return fmt.Errorf("value must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
	result, err := (&promptui.Prompt{
		Label:    prompt,
		Default:  strconv.Itoa(defVal),
		Validate: validate,
	}).Run()
	if err != nil {
		return 0, err
	}
	value, _ := strconv.Atoi(result)
	return value, nil
}

func getAlgoAccount(prompt string, defVal string) (string, error) {
	return (&promptui.Prompt{
		Label:   prompt,
		Default: defVal,
		Validate: func(s string) error {
			_, err := types.DecodeAddress(s)
			return err
		},
	}).Run()
}

func yesNo(prompt string) (string, error) {
	return (&promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}).Run()
}
