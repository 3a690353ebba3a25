package node

import (
	"errors"
	"fmt"
	"strings"
)

// Version of the simulation daemon, reported by the rpc status endpoint.
const Version = "0.1.0"

func validateListenAddr(addr string) error {
	if addr == "" {
		return errors.New("listen address is empty")
	}
	hostPort := removeProtocolIfDefined(addr)
	if !strings.Contains(hostPort, ":") {
		return fmt.Errorf("listen address %q has no port", addr)
	}
	return nil
}

func removeProtocolIfDefined(addr string) string {
	if strings.Contains(addr, "://") {
		return strings.Split(addr, "://")[1]
	}
	return addr
}
