package core

// Cluster identifies the Solana cluster an authorization is scoped to.
type Cluster string

const (
	ClusterMainnetBeta Cluster = "mainnet-beta"
	ClusterDevnet      Cluster = "devnet"
	ClusterTestnet     Cluster = "testnet"
)

// WalletKind tags the backend a session was established through.
type WalletKind string

const (
	// WalletKindMWABridge is the WebView-hosted Mobile Wallet Adapter bridge.
	WalletKindMWABridge WalletKind = "mwa-bridge"
)

// AppIdentity describes the requesting application to the wallet so it can be
// shown on the approval screen.
type AppIdentity struct {
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
	Icon string `json:"icon,omitempty"`
}

// Account is one account the wallet granted access to.
type Account struct {
	Address   string
	Label     string
	PublicKey []byte
}

// SignInPayload is the Sign-In-With-Solana statement presented to the wallet
// for approval alongside the authorization request.
type SignInPayload struct {
	Domain    string `json:"domain"`
	Statement string `json:"statement,omitempty"`
	URI       string `json:"uri,omitempty"`
	Nonce     string `json:"nonce,omitempty"`
	IssuedAt  string `json:"issued_at,omitempty"`
}

// SignInResult carries the wallet's proof for a completed sign-in request.
// Address is derived from the wallet-defined account representation.
type SignInResult struct {
	Address       string
	Signature     []byte
	SignedMessage []byte
}

// AuthorizationResult is the outcome of a completed authorize call.
// Accounts is never empty on a plain authorization; SignInResult is set only
// when a sign-in variant was requested.
type AuthorizationResult struct {
	Accounts     []Account
	AuthToken    string
	SignInResult *SignInResult
}

// SignInRecord is the persisted sign-in proof triple, kept with the session so
// collaborators can re-verify identity without a new wallet round trip.
type SignInRecord struct {
	Address       string `json:"address"`
	Signature     []byte `json:"signature"`
	SignedMessage []byte `json:"signed_message"`
}

// WalletSession is the client's record of the currently authorized account.
// AuthToken is opaque to the client; it is only ever handed back to the host
// for silent re-authorization. AuthToken is meaningful only while Address is
// non-empty, so transitions always replace or clear the whole record.
type WalletSession struct {
	Address   string        `json:"address"`
	AuthToken string        `json:"auth_token,omitempty"`
	Kind      WalletKind    `json:"wallet_kind,omitempty"`
	SignIn    *SignInRecord `json:"sign_in,omitempty"`
}

// Authorized reports whether the session holds an authorized account.
func (s WalletSession) Authorized() bool {
	return s.Address != ""
}

// Capabilities is the feature set reported by the wallet endpoint.
type Capabilities struct {
	SupportsSignAndSendTransactions bool     `json:"supports_sign_and_send_transactions"`
	SupportsCloneAuthorization      bool     `json:"supports_clone_authorization"`
	MaxTransactionsPerRequest       int      `json:"max_transactions_per_request"`
	MaxMessagesPerRequest           int      `json:"max_messages_per_request"`
	SupportedTransactionVersions    []string `json:"supported_transaction_versions,omitempty"`
	Features                        []string `json:"features,omitempty"`
}
