package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ttlform/internal/identity"
	"ttlform/internal/logging"
)

// identityCmd manages the identity submissions are credited to
var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show or change the identity submissions are credited to",
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the discovered identity and the sources consulted",
	Args:  cobra.NoArgs,
	RunE:  runIdentityShow,
}

var identitySetCmd = &cobra.Command{
	Use:   "set <identity>",
	Short: "Persist an identity for future sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentitySet,
}

var identityClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the persisted identity",
	Args:  cobra.NoArgs,
	RunE:  runIdentityClear,
}

func init() {
	identityCmd.AddCommand(identityShowCmd)
	identityCmd.AddCommand(identitySetCmd)
	identityCmd.AddCommand(identityClearCmd)
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	chain, err := identity.FromConfig(cfg.Identity, nil, logs.Get(logging.CategoryIdentity))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sources: %s\n", strings.Join(chain.Sources(), ", "))
	if id, ok := chain.Resolve(); ok {
		fmt.Fprintf(out, "identity: %s\n", id)
	} else {
		fmt.Fprintln(out, "identity: not logged in")
	}
	return nil
}

func runIdentitySet(cmd *cobra.Command, args []string) error {
	p := identity.Persisted{Path: cfg.Identity.PersistedPath}
	if err := p.Save(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "identity saved to %s\n", p.Path)
	return nil
}

func runIdentityClear(cmd *cobra.Command, args []string) error {
	p := identity.Persisted{Path: cfg.Identity.PersistedPath}
	if err := p.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "persisted identity cleared")
	return nil
}
