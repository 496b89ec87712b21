// Package users is a standalone user authentication service: registration,
// credential verification, and issuance/validation of short-lived access
// tokens and long-lived refresh tokens.
//
// Tokens:
//   - Access and refresh tokens share one HS256 codec and carry a token_use
//     claim. The guard only accepts access tokens; the refresh endpoint only
//     accepts refresh tokens. A token's subject is the user's email.
//   - Refresh tokens are not rotated and there is no server side revocation
//     list: a refresh token stays valid until its expiry or until the client
//     discards it. Known gap, kept stateless on purpose.
//
// Credentials:
//   - Passwords are hashed with argon2id and verified through a boolean
//     predicate that swallows every failure mode, so login can collapse
//     unknown email and wrong password into one undifferentiated rejection.
package users
