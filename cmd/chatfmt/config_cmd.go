package main

import (
	"fmt"

	"github.com/alnah/go-chatfmt/internal/yamlutil"
)

// runConfigCmd prints the effective configuration as YAML.
func runConfigCmd(args []string, env *Environment) error {
	flags, err := parseConfigFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	s, err := loadSettings(*flags, env)
	if err != nil {
		return err
	}

	out, err := yamlutil.Marshal(s.cfg)
	if err != nil {
		return err
	}

	keyState := "unset"
	if s.env.APIKey != "" {
		keyState = "set"
	}
	historyPath, err := s.cfg.HistoryPath()
	if err != nil {
		historyPath = "unavailable"
	}

	fmt.Fprintf(env.Stdout, "# CHATFMT_API_KEY: %s\n# history file: %s\n", keyState, historyPath)
	_, err = env.Stdout.Write(out)
	return err
}
