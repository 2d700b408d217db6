package main

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/urfave/cli/v3"

	"github.com/joltkin/boxoffice/internal/lib/misc"
)

func GetPassCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "pass",
		Aliases: []string{"p"},
		Usage:   "Deploy and operate a superfan pass contract",
		Commands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "Deploy a new pass instance with the given admin",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "creator",
						Usage:    "Account that creates the application. Signing keys must be present",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "admin",
						Usage: "Account allowed to credit points. Defaults to the creator",
					},
				},
				Action: DeployPass,
			},
			{
				Name:  "optin",
				Usage: "Opt an account in to the pass, creating its zeroed points record",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Account to opt in. Signing keys must be present",
						Required: true,
					},
				},
				Action: PassOptIn,
			},
			{
				Name:  "addpoints",
				Usage: "Credit points to a pass holder (admin only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "admin",
						Usage:    "Admin account. Signing keys must be present",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "Pass holder to credit. Defaults to the admin account",
					},
					&cli.UintFlag{
						Name:     "points",
						Usage:    "Points to credit (must be positive)",
						Required: true,
					},
				},
				Action: PassAddPoints,
			},
			{
				Name:  "claimtier",
				Usage: "Claim the tier matching a points threshold",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Pass holder claiming the tier. Signing keys must be present",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "threshold",
						Usage:    "Points threshold to claim as the new tier",
						Required: true,
					},
				},
				Action: PassClaimTier,
			},
			{
				Name:  "info",
				Usage: "Display a holder's points and tier",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Pass holder to look up",
						Required: true,
					},
				},
				Action: PassInfo,
			},
		},
	}
}

func DeployPass(ctx context.Context, cmd *cli.Command) error {
	creator := cmd.String("creator")
	admin := cmd.String("admin")
	if admin == "" {
		admin = creator
	}
	adminAddr, err := types.DecodeAddress(admin)
	if err != nil {
		return fmt.Errorf("invalid admin address: %w", err)
	}
	appID, err := App.passClient.Deploy(ctx, adminAddr, creator)
	if err != nil {
		return err
	}
	info, err := LoadDeploymentInfo()
	if err != nil {
		info = &DeploymentInfo{}
	}
	info.Network = cmd.String("network")
	info.PassAppID = appID
	return SaveDeploymentInfo(info)
}

func PassOptIn(ctx context.Context, cmd *cli.Command) error {
	if err := App.requirePass(ctx); err != nil {
		return err
	}
	txid, err := App.passClient.OptIn(ctx, cmd.String("account"))
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "opted in, txid:%s", txid)
	return nil
}

func PassAddPoints(ctx context.Context, cmd *cli.Command) error {
	if err := App.requirePass(ctx); err != nil {
		return err
	}
	admin := cmd.String("admin")
	// the contract itself requires an explicit target; defaulting to the
	// admin is purely CLI convenience
	target := cmd.String("target")
	if target == "" {
		target = admin
	}
	txid, err := App.passClient.AddPoints(ctx, admin, target, cmd.Uint("points"))
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "credited %d points to %s, txid:%s", cmd.Uint("points"), target, txid)
	return nil
}

func PassClaimTier(ctx context.Context, cmd *cli.Command) error {
	if err := App.requirePass(ctx); err != nil {
		return err
	}
	account := cmd.String("account")
	holder, err := App.passClient.Holder(ctx, account)
	if err != nil {
		return err
	}
	threshold := cmd.Uint("threshold")
	if holder.Points < threshold {
		return fmt.Errorf("account has %d points, below the %d threshold", holder.Points, threshold)
	}
	txid, err := App.passClient.ClaimTier(ctx, account, threshold)
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "tier claim submitted, txid:%s", txid)
	return nil
}

func PassInfo(ctx context.Context, cmd *cli.Command) error {
	if err := App.requirePass(ctx); err != nil {
		return err
	}
	account := cmd.String("account")
	holder, err := App.passClient.Holder(ctx, account)
	if err != nil {
		return err
	}
	fmt.Printf("Account: %s\nPoints: %d\nTier: %d\nAdmin: %s\n",
		account, holder.Points, holder.Tier, App.passClient.Admin().String())
	return nil
}
