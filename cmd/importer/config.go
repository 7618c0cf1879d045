package importer

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	File    string `envconfig:"IMPORT_FILE" default:""`
	Workers int    `envconfig:"IMPORT_WORKERS" default:"0"` // 0 uses PIPELINE_WORKERS
	Persist bool   `envconfig:"IMPORT_PERSIST" default:"false"`
	Source  string `envconfig:"IMPORT_SOURCE" default:""`     // defaults to the file name
	Output  string `envconfig:"IMPORT_OUTPUT" default:"text"` // "text" or "json"
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
