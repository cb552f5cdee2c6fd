// Package auth implements the hybrid OAuth2 credential core for the
// NinjaRMM API.
//
// Two credential slots are maintained: a machine identity obtained through
// the client-credentials grant and a human identity obtained through the
// interactive authorization-code grant with PKCE. The Manager exposes a
// single operation to callers (produce a bearer token usable for a named
// API operation) and handles persistence, refresh, flow selection, and
// externally injected tokens behind it.
//
// # Credential selection
//
// Operations whose name contains "ticket" require the human identity for
// attribution and are served exclusively from the user slot. All other
// operations prefer the machine identity and fall back to the user slot.
//
// # Injection-only mode
//
// A Manager constructed without an Exchange never performs network I/O.
// Tokens can only enter the store through the Inject* operations or the
// NINJAMCP_*_{ACCESS,REFRESH}_TOKEN / NINJAMCP_*_TOKEN_EXPIRY environment
// variables consumed at initialization.
package auth
