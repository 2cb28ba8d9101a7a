package internal

type ctxKey string

const ContextIdentityKey ctxKey = "identity"
