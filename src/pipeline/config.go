package pipeline

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Workers int `envconfig:"PIPELINE_WORKERS" default:"1"` // rows normalized concurrently; 1 keeps the loop sequential
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
