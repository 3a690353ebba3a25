package rpc

import rpc "github.com/tendermint/tendermint/rpc/jsonrpc/server"

var Routes = map[string]*rpc.RPCFunc{
	"status":    rpc.NewRPCFunc(Status, ""),
	"snapshot":  rpc.NewRPCFunc(Snapshot, ""),
	"history":   rpc.NewRPCFunc(History, ""),
	"event_log": rpc.NewRPCFunc(EventLog, ""),
	"metrics":   rpc.NewRPCFunc(Metrics, ""),
	"set_node_status": rpc.NewRPCFunc(SetNodeStatus, "node,status"),
	"set_drop":        rpc.NewRPCFunc(SetDropProbability, "probability"),
	"reset":           rpc.NewRPCFunc(Reset, "seed"),
}
