package configuration

type Configuration struct {
	HttpAddr          string `usage:"HTTP address"`
	Dir               string `usage:"data directory"`
	LogLevel          string `usage:"log level: debug, info, warn or error"`
	SeqUrl            string `usage:"Seq server URL, empty disables it"`
	SnapshotOnStop    bool   `usage:"snapshot every table when stopping"`
	EnableCompression bool   `usage:"gzip responses when the client accepts it"`
	Version           bool   `usage:"show version and exit"`
	ShowBanner        bool   `usage:"show big banner"`
	ShowConfig        bool   `usage:"print config"`
}

func Default() *Configuration {
	return &Configuration{
		HttpAddr:          "127.0.0.1:8080",
		Dir:               "data",
		LogLevel:          "info",
		SnapshotOnStop:    true,
		EnableCompression: true,
		ShowBanner:        true,
	}
}
