package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// watchConsole reads commands from r until "close" is entered or r ends.
// It reports whether the close command was given.
func watchConsole(r io.Reader, closeProxy func()) bool {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(command, "close") {
			log.Info().Msg("Close command received")
			closeProxy()
			return true
		}
		if command != "" {
			log.Info().Str("command", command).Msg(`Unknown command, enter "close" to shut down the proxy`)
		}
	}
	return false
}
