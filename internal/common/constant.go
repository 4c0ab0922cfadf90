package common

// TokenByteLength is the number of random bytes drawn for opaque session and
// reset tokens. 32 bytes of entropy, 64 hex characters on the wire.
const TokenByteLength = 32
