package rpc

import (
	jsoniter "github.com/json-iterator/go"

	"bftsim_demo/libs/metric"
	"bftsim_demo/runner"
)

var (
	env  *Environment
	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

func SetEnvironment(e *Environment) {
	env = e
}

type Environment struct {
	Runner *runner.Runner

	MetricSet *metric.MetricSet

	Info ServiceInfo
}

// ServiceInfo describes the running daemon; filled in once at assembly.
type ServiceInfo struct {
	Version    string `json:"version"`
	ListenAddr string `json:"listen_addr"`
	Seed       int64  `json:"seed"`
	NodeCount  int    `json:"node_count"`
	Quorum     int    `json:"quorum"`
}
