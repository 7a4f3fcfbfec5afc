// Package shadow implements the credential field of shadow(5) and gshadow(5)
// records: the $id$salt$hash framing, the algorithm id table and salted
// digests, plus crypt(3)-compatible hashing and verification.
package shadow
