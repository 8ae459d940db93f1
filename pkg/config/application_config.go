package config

const defaultWalletPath = "./data/wallet.db"

// ApplicationConfiguration config specific to the client.
type ApplicationConfiguration struct {
	LogLevel string              `yaml:"LogLevel"`
	LogPath  string              `yaml:"LogPath"`
	Wallet   WalletConfiguration `yaml:"Wallet"`
}

// WalletConfiguration points to the DID wallet.
type WalletConfiguration struct {
	Path string `yaml:"Path"`
}
