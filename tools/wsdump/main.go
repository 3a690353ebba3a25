package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const readTimeout = 10 * time.Second

// wsdump subscribes to the runner's websocket snapshot stream and dumps raw
// snapshot frames, a stand-in for the rendering client during development.

func connect(host string) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: host, Path: "/websocket/snapshots"}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

func main() {
	host := flag.String("host", "127.0.0.1:26657", "simulation rpc host")
	count := flag.Int("n", 10, "number of snapshot frames to dump (0 = forever)")
	flag.Parse()

	c, _, err := connect(*host)
	if err != nil {
		fmt.Printf("connect to %v failed: %v\n", *host, err)
		os.Exit(1)
	}
	defer c.Close()

	for i := 0; *count == 0 || i < *count; i++ {
		c.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := c.ReadMessage()
		if err != nil {
			fmt.Printf("read failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(raw))
	}
}
