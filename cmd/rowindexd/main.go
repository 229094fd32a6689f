package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/rowindex/bootstrap"
	"github.com/fulldump/rowindex/configuration"
	"github.com/fulldump/rowindex/logging"
)

var banner = `
                     _           _           
 _ __ _____      __ (_)_ __   __| | _____  __
| '__/ _ \ \ /\ / / | | '_ \ / _' |/ _ \ \/ /
| | | (_) \ V  V /  | | | | | (_| |  __/>  < 
|_|  \___/ \_/\_/   |_|_| |_|\__,_|\___/_/\_\
                     version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	logger, closeLogger := logging.SetupLogger(c.LogLevel, c.SeqUrl)
	defer closeLogger()

	start, _, err := bootstrap.Bootstrap(c, logger)
	if err != nil {
		logger.Error("bootstrap", "error", err.Error())
		closeLogger()
		os.Exit(-1)
	}

	start()
}
