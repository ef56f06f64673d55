// Package auth stores the login pairs the crawler authenticates with,
// along with the session cookies of their last successful login.
//
// A Manager tries the system keychain first, then an encrypted file under
// $XDG_CONFIG_HOME/igcrawler, and finally reads a single account from
// IGCRAWLER_* environment variables.
package auth
