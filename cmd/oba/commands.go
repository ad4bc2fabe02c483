// Package main provides CLI commands for the oba LDAP server.
package main

import (
	"fmt"
	"os"
)

// userCmd handles the user command.
func userCmd(args []string) int {
	if len(args) == 0 {
		printUserUsage(os.Stdout)
		return 0
	}

	// Check for help flags
	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUserUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "add":
		return userAddCmd(args[1:])
	case "delete":
		return userDeleteCmd(args[1:])
	case "passwd":
		return userPasswdCmd(args[1:])
	case "list":
		return userListCmd(args[1:])
	case "lock":
		return userLockCmd(args[1:])
	case "unlock":
		return userUnlockCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown user subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Run 'oba user help' for usage.")
		return 1
	}
}

// userAddCmd handles the user add subcommand.
func userAddCmd(args []string) int {
	impl := newUserCmdImpl()
	return impl.userAddCmdImpl(args)
}

// userDeleteCmd handles the user delete subcommand.
func userDeleteCmd(args []string) int {
	impl := newUserCmdImpl()
	return impl.userDeleteCmdImpl(args)
}

// userPasswdCmd handles the user passwd subcommand.
func userPasswdCmd(args []string) int {
	impl := newUserCmdImpl()
	return impl.userPasswdCmdImpl(args)
}

// userListCmd handles the user list subcommand.
func userListCmd(args []string) int {
	impl := newUserCmdImpl()
	return impl.userListCmdImpl(args)
}

// userLockCmd handles the user lock subcommand.
func userLockCmd(args []string) int {
	impl := newUserCmdImpl()
	return impl.userLockCmdImpl(args)
}

// userUnlockCmd handles the user unlock subcommand.
func userUnlockCmd(args []string) int {
	impl := newUserCmdImpl()
	return impl.userUnlockCmdImpl(args)
}

// valueOrDefault returns the value if non-empty, otherwise returns the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
