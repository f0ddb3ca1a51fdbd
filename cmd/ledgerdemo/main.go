// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Command ledgerdemo opens a ledger store, replays a small sample chain
// (a genesis mint, an open, a send, and the matching receive), confirms
// the resulting frontier, prunes the sender's open block, and prints
// the facade's cache counters. It exists to exercise the facade end to
// end, not as a production tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blocklattice/ledger/config"
	"github.com/blocklattice/ledger/crypto"
	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/facade"
	"github.com/blocklattice/ledger/ledger/ledgercore"
	"github.com/blocklattice/ledger/logging"
	"github.com/blocklattice/ledger/util"
)

var (
	dbPath string
	dbMem  bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgerdemo",
	Short: "Replays a sample account chain through the ledger facade",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "ledgerdemo.db", "database file (btree_mmap backend)")
	rootCmd.Flags().BoolVar(&dbMem, "mem", true, "use an in-memory database instead of --db")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logging.NewLogger()

	if err := util.RaiseRlimit(65536); err != nil {
		log.Warnf("could not raise file descriptor limit: %v", err)
	}

	ledger, err := facade.Open(ctx, config.DefaultLocal, dbPath, dbMem, ledgercore.Params{}, log)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer ledger.Close()

	sender := crypto.GenerateSignatureAlgorithm(seed(1))
	receiver := crypto.GenerateSignatureAlgorithm(seed(2))
	senderAccount := basics.Account(sender.PublicKey)
	receiverAccount := basics.Account(receiver.PublicKey)
	representative := senderAccount

	if err := seedGenesisPending(ctx, ledger, senderAccount); err != nil {
		return fmt.Errorf("seeding genesis pending: %w", err)
	}

	open := blocktype.OpenBlock{Source: genesisSendHash(), Representative: representative, Account: senderAccount}
	openHash := open.Hash()
	open.Sig = sender.Sign(openHash[:])
	if err := process(ctx, ledger, log, "open", open); err != nil {
		return err
	}

	send := blocktype.SendBlock{Previous: open.Hash(), Destination: receiverAccount, Balance: basics.ZeroAmount}
	sendHash := send.Hash()
	send.Sig = sender.Sign(sendHash[:])
	if err := process(ctx, ledger, log, "send", send); err != nil {
		return err
	}

	recv := blocktype.OpenBlock{Source: send.Hash(), Representative: representative, Account: receiverAccount}
	recvHash := recv.Hash()
	recv.Sig = receiver.Sign(recvHash[:])
	if err := process(ctx, ledger, log, "open (receiver)", recv); err != nil {
		return err
	}

	cemented, err := ledger.Confirm(ctx, recv.Hash(), 0)
	if err != nil {
		return fmt.Errorf("confirming: %w", err)
	}
	log.Infof("confirmed %d blocks", len(cemented))

	if err := ledger.Prune(ctx, open.Hash()); err != nil {
		return fmt.Errorf("pruning: %w", err)
	}
	log.Infof("pruned %x", open.Hash())

	caches := ledger.Caches()
	fmt.Printf("block_count=%d account_count=%d cemented_count=%d pruned_count=%d\n",
		caches.BlockCount.Load(), caches.AccountCount.Load(), caches.CementedCount.Load(), caches.PrunedCount.Load())
	return nil
}

func process(ctx context.Context, ledger *facade.Facade, log logging.Logger, label string, block blocktype.Block) error {
	status, err := ledger.Process(ctx, block, 1)
	if err != nil {
		return fmt.Errorf("processing %s: %w", label, err)
	}
	log.Infof("%s: %s", label, status)
	if !status.IsProgress() {
		return fmt.Errorf("processing %s: rejected with status %s", label, status)
	}
	return nil
}

func seed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b
	}
	return s
}

// genesisSendHash is a synthetic hash standing in for a real genesis
// mint block, which this demo has no component to produce (out of
// scope, per the block generation non-goal).
func genesisSendHash() basics.BlockHash {
	var h basics.BlockHash
	h[0] = 0xAA
	return h
}

func seedGenesisPending(ctx context.Context, ledger *facade.Facade, destination basics.Account) error {
	return ledger.SeedPending(ctx, destination, genesisSendHash(), basics.PendingInfo{
		Source: basics.Account{},
		Amount: basics.AmountFromUint64(1_000_000),
	})
}
