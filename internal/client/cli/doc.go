// Package cli implements authctl, the command-line client of authcore.
//
// Invoked with a command (authctl login) it runs that command once and
// exits; invoked without one it starts a small REPL. Commands:
//
//	register  create an account and cache its session
//	login     authenticate and cache the token pair
//	refresh   rotate the cached refresh token
//	verify    check the cached access token over gRPC
//	status    print the cached session
//	logout    revoke all sessions of the cached user and wipe the cache
package cli
