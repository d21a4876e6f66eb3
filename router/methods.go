package router

// command is the closed set of behaviors a request can classify into.
// One handler exists per variant; adding a method means adding a case
// the compiler checks, not a string falling through a default branch.
type command int

const (
	cmdRequestAccounts command = iota
	cmdAccounts
	cmdChainID
	cmdSendTransaction
	cmdSignMessage
	cmdSignTypedData
	cmdSwitchChain
	cmdAddChain
	cmdPassthrough
	cmdUnsupported
)

// passthroughMethods maps forwarded JSON-RPC methods to the number of
// params they need present before dispatch, with the error text used
// when they are missing
var passthroughMethods = map[string]struct {
	minParams int
	paramHint string
}{
	"eth_blockNumber":           {0, ""},
	"eth_gasPrice":              {0, ""},
	"net_version":               {0, ""},
	"eth_estimateGas":           {1, "transaction parameter"},
	"eth_call":                  {1, "call parameter"},
	"eth_getBalance":            {1, "address parameter"},
	"eth_getCode":               {1, "address parameter"},
	"eth_getTransactionByHash":  {1, "transaction hash parameter"},
	"eth_getTransactionReceipt": {1, "transaction hash parameter"},
}

// classify maps a JSON-RPC method name onto the command set
func classify(method string) command {
	switch method {
	case "eth_requestAccounts":
		return cmdRequestAccounts
	case "eth_accounts":
		return cmdAccounts
	case "eth_chainId":
		return cmdChainID
	case "eth_sendTransaction":
		return cmdSendTransaction
	case "eth_sign", "personal_sign":
		return cmdSignMessage
	case "eth_signTypedData", "eth_signTypedData_v3", "eth_signTypedData_v4":
		return cmdSignTypedData
	case "wallet_switchEthereumChain":
		return cmdSwitchChain
	case "wallet_addEthereumChain":
		return cmdAddChain
	}
	if _, ok := passthroughMethods[method]; ok {
		return cmdPassthrough
	}
	return cmdUnsupported
}
