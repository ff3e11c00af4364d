package domain

// ChainID identifies a supported blockchain network.
type ChainID string

const (
	ChainEthereum ChainID = "ethereum"
	ChainPolygon  ChainID = "polygon"
	ChainTron     ChainID = "tron"
	ChainBitcoin  ChainID = "bitcoin"
	ChainLitecoin ChainID = "litecoin"
)

// ChainModel describes how a chain tracks value.
type ChainModel string

const (
	// ModelAccount covers balance-per-address chains with smart-contract
	// capability (EVM, Tron). These are polled on the fast cadence.
	ModelAccount ChainModel = "account"

	// ModelUTXO covers chains tracking discrete spendable outputs
	// (Bitcoin family). These are polled on the slow cadence.
	ModelUTXO ChainModel = "utxo"
)
